package errors

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/distribution/reference"
)

// hubDomain pins parsed names to Docker Hub so a namespace containing '.'
// is never mistaken for a registry domain.
const hubDomain = "docker.io/"

// ValidateRepoName validates a namespace or repository name before it is
// placed into a registry URL path. kind names the field in error messages.
//
// The rules are conservative:
//   - No empty names
//   - No control characters
//   - No path separators, traversal sequences, tags or digests
//   - Maximum length of 255 characters
//   - A single path component of the distribution reference grammar
func ValidateRepoName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}

	if len(name) > reference.RepositoryNameTotalLengthMax {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", kind, reference.RepositoryNameTotalLengthMax)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains invalid control characters", kind)
		}
	}

	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "%s cannot contain path components: %q", kind, name)
	}

	if strings.ContainsAny(name, ":@") {
		return New(ErrCodeInvalidInput, "%s cannot carry a tag or digest: %q", kind, name)
	}

	if _, err := reference.ParseNormalizedNamed(hubDomain + name); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid %s %q", kind, name)
	}

	return nil
}

// ValidateRepository validates namespace and repo separately and then as the
// combined "namespace/repo" path.
func ValidateRepository(namespace, repo string) error {
	if err := ValidateRepoName("namespace", namespace); err != nil {
		return err
	}
	if err := ValidateRepoName("repository", repo); err != nil {
		return err
	}
	named, err := reference.ParseNormalizedNamed(hubDomain + namespace + "/" + repo)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid repository %s/%s", namespace, repo)
	}
	if got := reference.Path(named); got != namespace+"/"+repo {
		return New(ErrCodeInvalidInput, "invalid repository %s/%s", namespace, repo)
	}
	return nil
}

// ValidateHost validates a registry host. A bare host[:port] is accepted, as
// is an absolute http or https URL without path, query or fragment.
func ValidateHost(host string) error {
	if host == "" {
		return New(ErrCodeInvalidInput, "host cannot be empty")
	}

	raw := host
	if !strings.Contains(host, "://") {
		raw = "https://" + host
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid host %q", host)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "host must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "host %q has no hostname", host)
	}
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" || u.Fragment != "" {
		return New(ErrCodeInvalidInput, "host %q must not carry a path, query or fragment", host)
	}

	return nil
}
