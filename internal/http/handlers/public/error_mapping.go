package public

import (
	handlershared "github.com/shiling-next/internal/http/handlers/shared"
	"github.com/shiling-next/internal/http/response"
	"github.com/shiling-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}

var giftClaimErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrGiftAddressInvalid, Code: response.CodeBadRequest, Key: "error.gift_address_invalid"},
	{Target: service.ErrGiftOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrGiftOrderStatusInvalid, Code: response.CodeBadRequest, Key: "error.gift_status_invalid"},
	{Target: service.ErrNotGiftOrder, Code: response.CodeBadRequest, Key: "error.gift_not_gift_order"},
	{Target: service.ErrGiftExpired, Code: response.CodeBadRequest, Key: "error.gift_expired"},
	{Target: service.ErrGiftSelfClaim, Code: response.CodeBadRequest, Key: "error.gift_self_claim"},
	{Target: service.ErrGiftAlreadyClaimed, Code: response.CodeConflict, Key: "error.gift_already_claimed"},
	{Target: service.ErrGiftAlreadyReceived, Code: response.CodeConflict, Key: "error.gift_already_received"},
	{Target: service.ErrGiftItemUnavailable, Code: response.CodeConflict, Key: "error.gift_item_unavailable"},
}

var permissionErrorRules = []mappedHandlerError{
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: service.ErrTemplateIDsEmpty, Code: response.CodeBadRequest, Key: "error.template_ids_empty"},
}
