// Package glclient provides the primary entry point for constructing a
// GitLab REST API client that implements the gitlab.Client interface.
//
// It layers configuration, HTTP transport, retries and logging on top of
// the interfaces and types defined in the gitlab package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/gitlab-client/pkg/gitlab"
//	  "github.com/fivetwenty-io/gitlab-client/pkg/glclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Anonymous access to public projects.
//	  cli, err := glclient.New(&gitlab.Config{URL: "https://gitlab.com"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with a personal access token:
//	  cli, err = glclient.NewWithToken("https://gitlab.example.com", "glpat-...")
//	  if err != nil { log.Fatal(err) }
//
//	  version, err := cli.Version(ctx)
//	  if err != nil { log.Fatal(err) }
//	  log.Println(version.Version)
//	}
//
// Configuration files
//
// NewFromConfigFile and LoadConfig read a file with a global section and
// one section per instance:
//
//	global:
//	  default: work
//	  timeout: 30
//	  retry_transient_errors: true
//	work:
//	  url: https://gitlab.example.com
//	  private_token: glpat-...
//	  per_page: 100
//
// GITLAB_URL, GITLAB_PRIVATE_TOKEN, GITLAB_OAUTH_TOKEN and GITLAB_JOB_TOKEN
// override the file. SaveConfig adds or replaces an instance section.
//
// Logging
//
// Set Config.Logger to receive structured logs; gitlab.NewZerologLogger
// adapts a zerolog.Logger. With Config.Debug and no logger, requests and
// responses are written to stderr by a console logger.
package glclient
