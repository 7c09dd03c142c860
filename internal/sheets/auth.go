package sheets

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
)

const readonlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// AuthenticatedClient exchanges a service-account JSON key for an
// *http.Client that signs every request. The key format is whatever the
// Google console exports; we never look inside it.
func AuthenticatedClient(ctx context.Context, serviceAccountJSON []byte) (*http.Client, error) {
	cfg, err := google.JWTConfigFromJSON(serviceAccountJSON, readonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return cfg.Client(ctx), nil
}
