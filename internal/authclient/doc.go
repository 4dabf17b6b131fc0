// Package authclient talks to the devrunner authentication service.
//
// The service exposes three endpoints that do not follow a standard OAuth2
// token flow and therefore need custom handling:
//   - POST /login accepts a JSON identity and secret, returns the access token
//     in the body and the refresh token as a "refresh_token" cookie
//   - GET /check-token validates a bearer access token (200 valid, 401 invalid)
//   - POST /refresh-token exchanges the "refresh_token" cookie for a new pair
//
// Issued credentials are returned as *oauth2.Token values.
//
// # Usage
//
//	client, err := authclient.New("http://localhost:8000")
//	tok, err := client.Login(ctx, "dev@example.com", secret)
//
// # Custom Base Transport
//
// Configure a custom base transport (e.g., for proxies or tests):
//
//	client, err := authclient.New(baseURL, authclient.WithTransport(customTransport))
package authclient
