package credential

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

var ErrInvalidURL = errors.New("credential: jar store needs an absolute http(s) URL")

// JarStore keeps credential slots as cookies in an http.CookieJar scoped to
// one URL. Handing Jar() to the remote fetcher makes the credential ride
// along as ambient state on every authority request.
type JarStore struct {
	jar    http.CookieJar
	u      *url.URL
	domain string
	now    func() time.Time
}

var _ Store = (*JarStore)(nil)

// JarOptions tune a JarStore. All fields are optional.
type JarOptions struct {
	// Jar to use. nil => a fresh public-suffix aware cookiejar.
	Jar http.CookieJar
	// Domain, when set, scopes slots to a parent domain (".example.com")
	// instead of the URL's host only.
	Domain string
}

func NewJarStore(rawURL string, opts JarOptions) (*JarStore, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrInvalidURL
	}
	jar := opts.Jar
	if jar == nil {
		j, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		jar = j
	}
	return &JarStore{jar: jar, u: u, domain: opts.Domain, now: time.Now}, nil
}

// Jar returns the underlying cookie jar.
func (s *JarStore) Jar() http.CookieJar { return s.jar }

func (s *JarStore) Get(_ context.Context, name string) (string, bool, error) {
	for _, c := range s.jar.Cookies(s.u) {
		if c.Name == name && c.Value != "" {
			return c.Value, true, nil
		}
	}
	return "", false, nil
}

func (s *JarStore) Set(_ context.Context, name, value string, ttl time.Duration) error {
	c := s.cookie(name, value)
	if ttl > 0 {
		c.Expires = s.now().Add(ttl)
	}
	s.jar.SetCookies(s.u, []*http.Cookie{c})
	return nil
}

// Expire deletes the host-only slot and, when a Domain is configured, the
// domain-scoped one as well. Either may have been written by the authority.
func (s *JarStore) Expire(_ context.Context, name string) error {
	host := s.cookie(name, "")
	host.Domain = ""
	host.MaxAge = -1
	cookies := []*http.Cookie{host}
	if s.domain != "" {
		dom := s.cookie(name, "")
		dom.MaxAge = -1
		cookies = append(cookies, dom)
	}
	s.jar.SetCookies(s.u, cookies)
	return nil
}

func (s *JarStore) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.domain,
		Secure:   s.u.Scheme == "https",
		SameSite: http.SameSiteStrictMode,
	}
}
