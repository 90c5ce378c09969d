package services

import (
	"context"

	"AppMovin/auth"
	"AppMovin/storage"

	"golang.org/x/oauth2"
)

// GoogleDriveFactory returns a RemoteFactory creating a Drive backend with
// its own Authenticator. Empty credentials fall back to the defaults.
func GoogleDriveFactory(defaultClientID, defaultClientSecret string, opts ...auth.Option) RemoteFactory {
	return func(clientID, clientSecret string) (RemoteBackend, error) {
		if clientID == "" {
			clientID = defaultClientID
		}
		if clientSecret == "" {
			clientSecret = defaultClientSecret
		}

		authenticator, err := auth.NewAuthenticator(clientID, clientSecret, opts...)
		if err != nil {
			return nil, err
		}
		return storage.NewDriveBackend(authenticator, storage.DriveOptions{
			LookupAccount: func(ctx context.Context, ts oauth2.TokenSource) (string, error) {
				return auth.AccountEmail(ctx, ts)
			},
		}), nil
	}
}
