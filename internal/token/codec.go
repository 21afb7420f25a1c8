package token

import (
	"errors"
	"time"

	"hcm/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
)

// アクセストークンから取り出すクレーム
type Claims struct {
	PersonID   string
	Role       model.Role
	Department string
	Issuer     string
	Audience   string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// 署名付きアクセストークンのencode/decode（HS256 + 共有シークレット）
type Codec struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

func NewCodec(secret string, issuer string, audience string, accessTTL time.Duration) *Codec {
	return &Codec{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
	}
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// Encodeはpersonのクレームを詰めて署名する。exp = issuedAt + accessTTL。
func (c *Codec) Encode(person *model.Person, issuedAt time.Time) (string, error) {
	expiresAt := issuedAt.Add(c.accessTTL)

	claims := jwt.MapClaims{
		"sub":        person.ID,
		"role":       string(person.Role),
		"department": person.Department,
		"iss":        c.issuer,
		"aud":        c.audience,
		"iat":        issuedAt.Unix(),
		"exp":        expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// TryDecodeは署名検証と期限チェックをする。失敗はすべて ok=false（理由は返さない）。
// 期限は呼び出し側のnowで判定する（now >= exp は無効）。
func (c *Codec) TryDecode(raw string, now time.Time) (Claims, bool) {
	var out Claims

	// expは自前でnowと比較するため、パーサーの時刻検証は使わない
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	tok, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil || tok == nil || !tok.Valid {
		return out, false
	}

	mapClaims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return out, false
	}

	sub, err := parseStringClaim(mapClaims["sub"])
	if err != nil || sub == "" {
		return out, false
	}

	roleStr, err := parseStringClaim(mapClaims["role"])
	if err != nil {
		return out, false
	}
	role := model.Role(roleStr)
	if !role.IsValid() {
		return out, false
	}

	department, err := parseStringClaim(mapClaims["department"])
	if err != nil {
		return out, false
	}

	iat, err := parseUnixClaim(mapClaims["iat"])
	if err != nil {
		return out, false
	}

	exp, err := parseUnixClaim(mapClaims["exp"])
	if err != nil {
		return out, false
	}

	// 境界：now == exp も無効
	if !now.Before(exp) {
		return out, false
	}

	iss, _ := parseStringClaim(mapClaims["iss"])
	aud, _ := parseStringClaim(mapClaims["aud"])

	out = Claims{
		PersonID:   sub,
		Role:       role,
		Department: department,
		Issuer:     iss,
		Audience:   aud,
		IssuedAt:   iat,
		ExpiresAt:  exp,
	}

	return out, true
}

func parseStringClaim(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string claim")
	}
	return s, nil
}

// JSON経由の数値はfloat64になるので変換する
func parseUnixClaim(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0), nil
	case int64:
		return time.Unix(t, 0), nil
	default:
		return time.Time{}, errors.New("invalid unix claim")
	}
}
