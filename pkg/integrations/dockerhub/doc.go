// Package dockerhub streams repository tags from the Docker Hub v2 API.
//
// # Endpoint
//
// The first request goes to
//
//	https://{host}/v2/namespaces/{namespace}/repositories/{repo}/tags?page_size=100
//
// and every later request to the page's "next" link until that link is
// null or absent. Only "next" and "results[].name" are read from a page.
//
// # Usage
//
//	client := integrations.NewClient(integrations.DefaultHeaders(""))
//	src := dockerhub.NewSource(client, dockerhub.DefaultHost, "library", "redis")
//	for {
//	    name, err := src.Next(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(name)
//	}
//
// Or with range-over-func:
//
//	for name, err := range src.All(ctx) {
//	    ...
//	}
//
// # Rate Limits
//
// Docker Hub throttles anonymous clients. A 429 response with an
// x-retry-after header makes the [Source] sleep until that instant and ask
// for the same page again, as often as the registry demands. A 429 without
// the header ends the stream with RATE_LIMIT_HEADER_MISSING.
package dockerhub
