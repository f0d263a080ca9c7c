// Package mapper turns HTTP responses into errors.
//
// A Mapper declares which responses it handles and a priority; lower
// priorities are consulted first. The Registry evaluates a response against
// every handling mapper in priority order and returns the first non-nil
// error. Mappers with equal priority keep registration order.
//
// Default is the catch-all mapper: it handles every status >= 400 at the
// lowest priority and returns an errors.AppError carrying the status.
//
//	reg := mapper.NewRegistry(
//	    mapper.Status(404, 10, func(r *transport.Response) error { return ErrNotFound }),
//	    mapper.Default(),
//	)
//	err := reg.Evaluate(resp)
package mapper
