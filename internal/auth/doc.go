// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

/*
Package auth provides local account authentication for the API.

Accounts are created with an email, a username and a password. The password
is stored as a bcrypt hash in the accounts collection, separate from the
public profile in the users collection. A successful signup or login issues
an HS256 JWT whose subject is the account email.

# Components

  - JWTManager: token issuance and validation
  - Service: signup and login against the document store
  - Middleware: resolves the caller identity from the Authorization header
    ("Bearer <token>") or the "token" cookie

Handlers read the identity with IdentityFromContext and pass the email
explicitly to the domain services.

# Usage

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	svc := auth.NewService(store, jwtManager)
	mw := auth.NewMiddleware(jwtManager)

	r.Group(func(r chi.Router) {
	    r.Use(mw.Authenticate)
	    r.Get("/api/v1/events", handler.ListEvents)
	})
*/
package auth
