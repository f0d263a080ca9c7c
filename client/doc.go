// Package client turns annotated descriptor structs into working REST
// clients.
//
// A descriptor embeds Resource for interface-level tags and declares one func
// field per remote operation:
//
//	type UsersAPI struct {
//	    client.Resource `name:"users" path:"/users" produces:"application/json"`
//
//	    Get    func(ctx context.Context, id string) (*User, error)     `method:"GET" path:"/{id}" params:"path=id"`
//	    Search func(ctx context.Context, q string, page int) ([]User, error) `method:"GET" params:"query=q,query=page"`
//	    Fetch  func(ctx context.Context, id string) *dispatch.Future[User] `method:"GET" path:"/{id}" params:"path=id"`
//	    Items  func(id string) *ItemsAPI                                 `path:"/{id}/items" params:"path=id"`
//	}
//
//	users, err := client.New[UsersAPI](client.NewBuilder().BaseURL("http://users.local"))
//	u, err := users.Get(ctx, "42")
//
// Interface tags: name, path, produces, consumes, headers. Method tags:
// method, path, produces, consumes, headers, params.
//
// params is positional over the arguments that follow an optional leading
// context.Context. Each comma-separated slot is role=name (path, header,
// cookie, query, matrix, form), bean, body or empty; several annotations are
// joined with "|" and the role with the highest precedence wins.
//
// headers holds rules separated by ";". Each rule is "Name: v1, v2" or
// "Name: {fn}" where fn names a compute function: a method of the descriptor
// when undotted, a ComputeRegistry entry otherwise. "Name?:" marks the header
// optional, so a failing compute function drops it instead of failing the call.
//
// Result shapes: error only; (T, error) decoded from the body;
// (*transport.Response, error); *dispatch.Future[T] for async calls; and
// *Child or (*Child, error) for sub-resource locators, which take a path and
// no HTTP method.
//
// Descriptors are parsed once per type. Build compiles and validates the
// parsed definition and fails with a DEFINITION_ERROR for inconsistent
// descriptors.
package client
