package idcache

import (
	"net/http"

	"github.com/unkn0wn-root/idcache/credential"
	"github.com/unkn0wn-root/idcache/remote"
)

const (
	ContextResource = "identity_context"
	DetailsResource = "identity_details"

	DefaultContextPath = "/user_management/user/contexts/"
	DefaultDetailsPath = "/user_management/users/"
)

// Record is an identity as the cache sees it: an opaque bag of claims.
type Record map[string]any

// String returns r[key] when it is a string, else "".
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// IdentityOptions configure NewIdentity. All fields are optional.
type IdentityOptions struct {
	ContextPath string // "" => DefaultContextPath
	DetailsPath string // "" => DefaultDetailsPath

	// Jar carries the session cookie to the authority. nil => the client's
	// store jar when the store is cookie-backed (credential.JarStore).
	Jar        http.CookieJar
	HTTPClient *http.Client
	RetryMax   int
	MaxBody    int
}

// Identity is the stock pair of resources a web client needs.
//
// Context is primed from the credential slot so the current user is visible
// before the authority answers. Details is authority-only.
type Identity struct {
	Context Resource[Record]
	Details Resource[Record]
}

func NewIdentity(c *Client, opts IdentityOptions) (*Identity, error) {
	jar := opts.Jar
	if jar == nil {
		if js, ok := c.store.(interface{ Jar() http.CookieJar }); ok {
			jar = js.Jar()
		}
	}
	newFetcher := func(path string) (*remote.HTTP[Record], error) {
		return remote.NewHTTP(remote.Config[Record]{
			Path:       path,
			Jar:        jar,
			HTTPClient: opts.HTTPClient,
			RetryMax:   opts.RetryMax,
			MaxBody:    opts.MaxBody,
		})
	}

	cf, err := newFetcher(coalesce(opts.ContextPath, DefaultContextPath))
	if err != nil {
		return nil, err
	}
	df, err := newFetcher(coalesce(opts.DetailsPath, DefaultDetailsPath))
	if err != nil {
		return nil, err
	}

	ctxRes, err := NewResource(c, ResourceOptions[Record]{
		Name:    ContextResource,
		Fetcher: cf,
		Reader: &credential.TokenReader[Record]{
			Store:    c.store,
			Name:     c.credName,
			Logger:   c.log,
			OnReject: c.hooks.CredentialRejected,
		},
	})
	if err != nil {
		return nil, err
	}
	detRes, err := NewResource(c, ResourceOptions[Record]{
		Name:    DetailsResource,
		Fetcher: df,
	})
	if err != nil {
		return nil, err
	}
	return &Identity{Context: ctxRes, Details: detRes}, nil
}
