package middleware

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"homelyquad/internal/common"

	"github.com/labstack/echo/v4"
)

var versionPrefix = regexp.MustCompile(`^/(v[0-9]+)(/|$)`)

// VersionMiddleware tags responses with the API version serving them
type VersionMiddleware struct {
	supportedVersions map[string]string
	defaultVersion    string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		supportedVersions: map[string]string{
			"v1": "Current stable API version",
		},
		defaultVersion: "v1",
	}
}

// VersionHeader adds version information to response headers
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			if msg, ok := vm.supportedVersions[version]; ok {
				c.Response().Header().Set("X-API-Message", msg)
			}
			return next(c)
		}
	}
}

// APIVersionResolver rejects paths that name a version this server does not serve.
func (vm *VersionMiddleware) APIVersionResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := vm.defaultVersion
			if m := versionPrefix.FindStringSubmatch(c.Request().URL.Path); m != nil {
				if _, ok := vm.supportedVersions[m[1]]; !ok {
					return c.JSON(http.StatusNotFound, common.CreateErrorResponse("UNSUPPORTED_VERSION", "Unsupported API version",
						map[string]string{"supported_versions": strings.Join(vm.GetSupportedVersions(), ", ")}))
				}
				version = m[1]
			}
			c.Set("api_version", version)
			return next(c)
		}
	}
}

// GetSupportedVersions returns the served versions in order
func (vm *VersionMiddleware) GetSupportedVersions() []string {
	versions := make([]string, 0, len(vm.supportedVersions))
	for v := range vm.supportedVersions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
