package admin

import (
	handlershared "github.com/shiling-next/internal/http/handlers/shared"
	"github.com/shiling-next/internal/http/response"
	"github.com/shiling-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

var deliveryBatchErrorRules = []handlershared.MappedError{
	{Target: service.ErrDeliveryPlanIDsEmpty, Code: response.CodeBadRequest, Key: "error.plan_ids_empty"},
	{Target: service.ErrDeliveryPlanConflict, Code: response.CodeConflict, Key: "error.plan_conflict"},
	{Target: service.ErrDeliveredCountOverflow, Code: response.CodeConflict, Key: "error.delivered_overflow"},
	{Target: service.ErrSubscriptionProductNotFound, Code: response.CodeBadRequest, Key: "error.sub_product_not_found"},
	{Target: service.ErrSubscriptionProductInactive, Code: response.CodeBadRequest, Key: "error.sub_product_inactive"},
	{Target: service.ErrSubscriptionProductOutOfStock, Code: response.CodeBadRequest, Key: "error.sub_product_out_of_stock"},
}

func respondBatchError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, deliveryBatchErrorRules, response.CodeInternal, "error.internal")
}
