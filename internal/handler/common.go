package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "campus-events/pkg/app_errors"
	"campus-events/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorHeader 由前端的驗證層注入的使用者 id
const (
	ActorHeader = "X-User-ID"
	actorKey    = "actor_id"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// validatable 由 request DTO 以 ozzo-validation 實作
type validatable interface {
	Validate() error
}

// BindAndValidate 解析 JSON 後再做欄位驗證，失敗時已回應 400
func BindAndValidate(c *gin.Context, obj validatable) error {
	if err := BindJson(c, obj); err != nil {
		return err
	}
	if err := obj.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return err
	}
	return nil
}

// BindStrictJSON 同 BindAndValidate，但 body 含 DTO 未宣告的欄位時以 unknown 回應整筆拒絕
func BindStrictJSON(c *gin.Context, obj validatable, unknown *apperrors.Error) error {
	if c.Request.Body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return errors.New("empty request body")
	}

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		if field, ok := unknownJSONField(err); ok {
			handleError(c, apperrors.Detail(unknown, field), "BindStrictJSON")
			return err
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return err
	}

	if err := obj.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return err
	}
	return nil
}

// unknownJSONField 取出 DisallowUnknownFields 回報的欄位名稱
func unknownJSONField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}

// RequireActor 沒有合法的使用者 id 時回應 401
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.GetHeader(ActorHeader))
		if err != nil || id < 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid " + ActorHeader})
			return
		}
		c.Set(actorKey, id)
		c.Next()
	}
}

func actorID(c *gin.Context) int {
	return c.GetInt(actorKey)
}

func parseEventUUID(c *gin.Context) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event uuid"})
		return uuid.Nil, false
	}
	return eventID, true
}

func parseIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindPrecondition:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// handleError 依錯誤分類決定狀態碼；預期內的錯誤記 Warn，其餘記 Error
func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	if ctxErr := c.Request.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		log.Warn("Request cancelled")
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Request cancelled"})
		return
	}

	kind := apperrors.KindOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		log.Error("Unexpected error")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	log.Warn("Request rejected", zap.String("kind", kind.String()))
	c.JSON(status, gin.H{
		"error": apperrors.Message(err),
		"kind":  kind.String(),
	})
}
