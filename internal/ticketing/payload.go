package ticketing

import (
	"errors"
	"fmt"
	"strings"

	apperrors "campus-events/pkg/app_errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims QR code 內容：票券、活動、報名、參加者
type Claims struct {
	TicketID        string `json:"tid"`
	EventID         int    `json:"eid"`
	ParticipationID int    `json:"pid"`
	UserID          int    `json:"uid"`
	jwt.RegisteredClaims
}

// Codec 簽發與驗證 QR payload（HS256）
type Codec struct {
	key []byte
}

func NewCodec(signingKey string) *Codec {
	return &Codec{key: []byte(signingKey)}
}

func (c *Codec) Encode(ticketID uuid.UUID, eventID, participationID, userID int) (string, error) {
	claims := Claims{
		TicketID:        ticketID.String(),
		EventID:         eventID,
		ParticipationID: participationID,
		UserID:          userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: ticketID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign ticket payload: %w", err)
	}
	return signed, nil
}

// Decode 簽章錯誤或格式錯誤一律視為無效票券
func (c *Codec) Decode(payload string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(payload, claims, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidTicketPayload
	}
	if _, err := uuid.Parse(claims.TicketID); err != nil {
		return nil, apperrors.ErrInvalidTicketPayload
	}
	return claims, nil
}

// Reference 掃描輸入：可能是票券 UUID 或簽章 payload
type Reference struct {
	TicketID uuid.UUID
	Claims   *Claims
}

var errEmptyReference = errors.New("empty ticket reference")

// ParseReference 先嘗試 UUID，否則當作簽章 payload 解析
func (c *Codec) ParseReference(raw string) (*Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidTicketPayload, errEmptyReference)
	}

	if id, err := uuid.Parse(raw); err == nil {
		return &Reference{TicketID: id}, nil
	}

	claims, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	return &Reference{
		TicketID: uuid.MustParse(claims.TicketID),
		Claims:   claims,
	}, nil
}
