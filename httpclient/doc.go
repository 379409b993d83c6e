// Package httpclient provides a small HTTP client whose non-2xx responses
// are classified into typed errors, and a Command adapter that lets HTTP
// calls run through the connector pipeline.
//
// Resilience is not applied here. Retry, circuit breaking, rate limiting and
// timeouts come from the pipeline that executes the Command.
//
// # Basic Usage
//
//	client, _ := httpclient.New(httpclient.Config{BaseURL: "https://api.example.com"})
//	cmd := httpclient.NewCommand(client, httpclient.Request{Path: "/users/123"})
//	res := connector.Execute(ctx, c, connector.Descriptor[User]{
//	    Endpoint:     usersEndpoint,
//	    Deserializer: connector.JSON[User](),
//	    Command:      cmd,
//	})
package httpclient
