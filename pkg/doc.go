// Package pkg provides the libraries behind hubtags.
//
// # Overview
//
// hubtags lists the tags of a container image repository and reports the
// newest version on every (major, minor) line. The pkg directory is
// organized into these areas:
//
//  1. [versions] - Tag parsing and the per-line maximum aggregate
//  2. [integrations] - Registry API clients (Docker Hub)
//  3. [httputil] - Server-dictated rate-limit waits
//  4. [pipeline] - Orchestration (fetch → filter → parse → aggregate)
//  5. [errors], [observability], [buildinfo] - Cross-cutting support
//
// # Architecture
//
// The data flow through hubtags:
//
//	Registry tags endpoint (paginated JSON)
//	         ↓
//	    [integrations/dockerhub] Source (one name at a time, page order)
//	         ↓
//	    [pipeline] Runner (filters, parser, skip diagnostics)
//	         ↓
//	    [versions] Aggregator (max per major.minor)
//	         ↓
//	    JSON/YAML/table output
//
// # Quick Start
//
//	import (
//	    "context"
//	    "encoding/json"
//	    "os"
//
//	    "github.com/matzehuels/hubtags/pkg/integrations"
//	    "github.com/matzehuels/hubtags/pkg/integrations/dockerhub"
//	    "github.com/matzehuels/hubtags/pkg/pipeline"
//	    "github.com/matzehuels/hubtags/pkg/versions"
//	)
//
//	client := integrations.NewClient(integrations.DefaultHeaders(""))
//	src := dockerhub.NewSource(client, dockerhub.DefaultHost, "library", "redis")
//
//	result, err := pipeline.NewRunner(versions.Lenient, nil).
//	    Execute(context.Background(), src, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	out, _ := json.MarshalIndent(result.Snapshot, "", "  ")
//	os.Stdout.Write(out)
//
// [versions]: github.com/matzehuels/hubtags/pkg/versions
// [integrations]: github.com/matzehuels/hubtags/pkg/integrations
// [integrations/dockerhub]: github.com/matzehuels/hubtags/pkg/integrations/dockerhub
// [httputil]: github.com/matzehuels/hubtags/pkg/httputil
// [pipeline]: github.com/matzehuels/hubtags/pkg/pipeline
// [errors]: github.com/matzehuels/hubtags/pkg/errors
// [observability]: github.com/matzehuels/hubtags/pkg/observability
// [buildinfo]: github.com/matzehuels/hubtags/pkg/buildinfo
package pkg
