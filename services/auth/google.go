package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

var ErrGoogleAuthFailed = errors.New("google authentication failed")

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint
// and checks the audience against the configured OAuth client id.
type GoogleVerifier struct {
	clientID string
	endpoint string
	httpc    *http.Client
}

func NewGoogleVerifier(clientID string, httpc *http.Client) *GoogleVerifier {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{
		clientID: strings.TrimSpace(clientID),
		endpoint: googleTokenInfoURL,
		httpc:    httpc,
	}
}

// Verify checks credential and returns the verified email and Google
// subject id. Any validation failure maps to ErrGoogleAuthFailed.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (email, subject string, err error) {
	credential = strings.TrimSpace(credential)
	if credential == "" || v.clientID == "" {
		return "", "", ErrGoogleAuthFailed
	}

	endpoint := v.endpoint + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", ErrGoogleAuthFailed
	}

	resp, err := v.httpc.Do(req)
	if err != nil {
		return "", "", ErrGoogleAuthFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", ErrGoogleAuthFailed
	}

	var info struct {
		Aud     string `json:"aud"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Expires string `json:"exp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", ErrGoogleAuthFailed
	}

	if info.Aud != v.clientID || info.Sub == "" || info.Email == "" {
		return "", "", ErrGoogleAuthFailed
	}
	return info.Email, info.Sub, nil
}
