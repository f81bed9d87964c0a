// Package gitlab provides types, interfaces, and helpers for working with the
// GitLab v4 REST API repository endpoints.
//
// # Overview
//
// The gitlab package defines the domain types (TreeNode, Blob, Commit,
// Compare, Contributor) and the client interfaces (Client,
// RepositoriesClient). A concrete implementation is provided by the glclient
// package, which wires configuration, transport, retries and logging. Most
// consumers should import glclient to construct a client.
//
// Getting a client
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
//	  cli, err := glclient.New(&gitlab.Config{
//	    URL:          "https://gitlab.example.com",
//	    PrivateToken: "glpat-...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  nodes, err := cli.Repositories().Tree(ctx, "group/project", &gitlab.TreeOptions{Ref: "main"})
//	  if err != nil { log.Fatal(err) }
//	  _ = nodes
//	}
//
// # Response modes
//
// Binary endpoints take a ResponseMode. Raw returns the whole body;
// Streamed hands the body to a sink in fixed-size chunks without keeping
// it in memory:
//
//	f, _ := os.Create("archive.tar.gz")
//	defer f.Close()
//	_, err := cli.Repositories().Archive(ctx, 42, nil, gitlab.Streamed(32*1024, func(chunk []byte) error {
//	  _, err := f.Write(chunk)
//	  return err
//	}))
//
// # Pagination
//
// List methods return the first page unless ListOptions.All or
// ListOptions.Page is set. Cursor variants fetch lazily:
//
//	cursor, _ := cli.Repositories().TreeCursor(ctx, 42, &gitlab.TreeOptions{Recursive: true})
//	for cursor.HasNext() {
//	  node, err := cursor.Next()
//	  if err != nil { break }
//	  _ = node
//	}
//
// # Errors
//
// Failures are typed: HTTPError for non-2xx responses, RedirectError for a
// redirected mutating request, ParsingError for invalid JSON,
// ConnectionError for transport failures and StreamError for failures while
// streaming. Helpers such as IsNotFound and IsRateLimited branch on common
// cases.
package gitlab
