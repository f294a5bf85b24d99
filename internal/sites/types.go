package sites

import "context"

const (
	AudienceAdult   = "adult"
	AudienceGeneral = "general"
)

// Site resolves a title to a verified reading link on one external site.
// Resolve never fails loudly: any fetch, parse or verification problem is
// reported as ok == false.
type Site interface {
	Key() string
	Name() string
	Audience() string
	HealthCheck(ctx context.Context) error
	Resolve(ctx context.Context, title string) (link string, ok bool)
}

type LinkVerifier interface {
	Verify(ctx context.Context, siteKey string, rawURL string, title string) bool
}

func AudienceFor(isAdult bool) string {
	if isAdult {
		return AudienceAdult
	}
	return AudienceGeneral
}
