/*
Copyright The Reginleif Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package getter

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/reginleif/reginleif/pkg/cli"
)

// getterOptions are generic parameters to be provided to the getter during instantiation.
//
// Getters may or may not ignore these parameters as they are passed in.
type getterOptions struct {
	url                   string
	certFile              string
	keyFile               string
	caFile                string
	insecureSkipVerifyTLS bool
	acceptHeader          string
	username              string
	password              string
	passCredentialsAll    bool
	userAgent             string
	timeout               time.Duration
	transport             *http.Transport
}

// Option allows specifying various settings configurable by the user for overriding the defaults
// used when performing Get operations with the Getter.
type Option func(*getterOptions)

// WithURL informs the getter the server name that will be used when fetching objects. Used in conjunction with
// WithBasicAuth to scope credentials to that server.
func WithURL(url string) Option {
	return func(opts *getterOptions) {
		opts.url = url
	}
}

// WithAcceptHeader sets the request's Accept header as some REST APIs serve multiple content types
func WithAcceptHeader(header string) Option {
	return func(opts *getterOptions) {
		opts.acceptHeader = header
	}
}

// WithBasicAuth sets the request's Authorization header to use the provided credentials
func WithBasicAuth(username, password string) Option {
	return func(opts *getterOptions) {
		opts.username = username
		opts.password = password
	}
}

func WithPassCredentialsAll(pass bool) Option {
	return func(opts *getterOptions) {
		opts.passCredentialsAll = pass
	}
}

// WithUserAgent sets the request's User-Agent header to use the provided agent name.
func WithUserAgent(userAgent string) Option {
	return func(opts *getterOptions) {
		opts.userAgent = userAgent
	}
}

// WithInsecureSkipVerifyTLS determines if a TLS Certificate will be checked
func WithInsecureSkipVerifyTLS(insecureSkipVerifyTLS bool) Option {
	return func(opts *getterOptions) {
		opts.insecureSkipVerifyTLS = insecureSkipVerifyTLS
	}
}

// WithTLSClientConfig sets the client auth with the provided credentials.
func WithTLSClientConfig(certFile, keyFile, caFile string) Option {
	return func(opts *getterOptions) {
		opts.certFile = certFile
		opts.keyFile = keyFile
		opts.caFile = caFile
	}
}

// WithTimeout sets the timeout for requests. Zero disables the client
// timeout; the request context still applies.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *getterOptions) {
		opts.timeout = timeout
	}
}

// WithTransport sets the http.Transport to allow overwriting the HTTPGetter default.
func WithTransport(transport *http.Transport) Option {
	return func(opts *getterOptions) {
		opts.transport = transport
	}
}

// Response is a streamed response body. Callers must close Body.
type Response struct {
	Body io.ReadCloser
	// Size is the length reported by the source, or -1 when unknown.
	Size int64
}

// Getter is an interface to support GET to the specified URL.
type Getter interface {
	// Get opens a stream for the content at url.
	Get(ctx context.Context, url string, options ...Option) (*Response, error)
}

// Constructor is the function for every getter which creates a specific instance
// according to the configuration
type Constructor func(options ...Option) (Getter, error)

// Provider represents any getter and the schemes that it supports.
//
// For example, an HTTP provider may provide one getter that handles both
// 'http' and 'https' schemes.
type Provider struct {
	Schemes []string
	New     Constructor
}

// Provides returns true if the given scheme is supported by this Provider.
func (p Provider) Provides(scheme string) bool {
	return slices.Contains(p.Schemes, scheme)
}

// Providers is a collection of Provider objects.
type Providers []Provider

// ByScheme returns a Provider that handles the given scheme.
//
// If no provider handles this scheme, this will return an error.
func (p Providers) ByScheme(scheme string) (Getter, error) {
	for _, pp := range p {
		if pp.Provides(scheme) {
			return pp.New()
		}
	}
	return nil, errors.Errorf("scheme %q not supported", scheme)
}

// ForURL returns a Getter for the scheme of rawURL.
func (p Providers) ForURL(rawURL string) (Getter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %q", rawURL)
	}
	return p.ByScheme(u.Scheme)
}

// Get looks up the getter for url and opens it. It is a convenience for
// callers that fetch from mixed schemes.
func (p Providers) Get(ctx context.Context, rawURL string, options ...Option) (*Response, error) {
	g, err := p.ForURL(rawURL)
	if err != nil {
		return nil, err
	}
	return g.Get(ctx, rawURL, options...)
}

const (
	// The cost timeout references curl's default connection timeout.
	// https://github.com/curl/curl/blob/master/lib/connect.h#L40C21-L40C21
	// Manifests are small; artifact downloads override this per attempt.
	DefaultHTTPTimeout = 120
)

var defaultOptions = []Option{WithTimeout(time.Second * DefaultHTTPTimeout)}

// Getters returns the built-in providers.
func Getters(extraOpts ...Option) Providers {
	return Providers{
		Provider{
			Schemes: []string{"http", "https"},
			New: func(options ...Option) (Getter, error) {
				options = append(options, defaultOptions...)
				options = append(options, extraOpts...)
				return NewHTTPGetter(options...)
			},
		},
		Provider{
			Schemes: []string{"file"},
			New: func(options ...Option) (Getter, error) {
				return NewFileGetter(), nil
			},
		},
	}
}

// All returns the built-in providers configured from settings.
func All(settings *cli.EnvSettings, opts ...Option) Providers {
	base := []Option{
		WithURL(settings.ManifestURL),
		WithTLSClientConfig(settings.CertFile, settings.KeyFile, settings.CAFile),
		WithInsecureSkipVerifyTLS(settings.InsecureSkipTLSVerify),
		WithBasicAuth(settings.Username, settings.Password),
	}
	return Getters(append(base, opts...)...)
}
