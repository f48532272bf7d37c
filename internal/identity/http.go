package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/domain"
)

// HTTPResolver asks the account API who a token belongs to, via
// GET {base}/api/auth/me with a bearer header. Any failure downgrades to
// guest; a dead account API must not take chat down with it.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type mePayload struct {
	Success bool `json:"success"`
	Data    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Nickname string `json:"nickname"`
		Role     string `json:"role"`
	} `json:"data"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, token string) domain.Identity {
	if token == "" {
		return newGuest()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/auth/me", nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "identity").Msg("build auth request")
		return newGuest()
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("module", "identity").Msg("auth lookup failed, downgrading to guest")
		return newGuest()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Info().Str("module", "identity").Int("status", resp.StatusCode).Msg("token rejected, downgrading to guest")
		return newGuest()
	}

	var p mePayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil || !p.Success || p.Data.ID == "" {
		log.Warn().Err(err).Str("module", "identity").Msg("bad auth payload, downgrading to guest")
		return newGuest()
	}

	name := p.Data.Nickname
	if name == "" {
		name = p.Data.Username
	}
	return domain.Identity{
		ID:          domain.UserID(p.Data.ID),
		DisplayName: name,
		Role:        mapRole(p.Data.Role),
	}
}

// mapRole folds the account service's role names onto ours; anything
// unknown but authenticated is an ordinary member.
func mapRole(role string) domain.Role {
	switch role {
	case "admin":
		return domain.RoleAdmin
	case "guest", "":
		return domain.RoleGuest
	default:
		return domain.RoleMember
	}
}
