package txn

import "context"

// Service is the base for transactional service-layer types. Embed it and
// construct it with the resource the service's entities live on; business
// methods then reach the right accessor through Accessor and open
// boundaries through InTransaction without ever holding a transaction
// handle themselves.
type Service struct {
	manager  *Manager
	resource Resource
}

// NewService binds a service base to a manager and a resource. A nil
// resource is a wiring defect and fails immediately with
// ErrResourceUnbound; a nil manager falls back to the default manager.
func NewService(manager *Manager, resource Resource) (*Service, error) {
	if resource == nil {
		return nil, ErrResourceUnbound
	}
	if manager == nil {
		manager = defaultManager
	}
	return &Service{manager: manager, resource: resource}, nil
}

// Resource returns the resource the service is bound to.
func (s *Service) Resource() Resource {
	return s.resource
}

// Manager returns the boundary manager the service is bound to.
func (s *Service) Manager() *Manager {
	return s.manager
}

// Accessor returns the accessor for the service's entities: transaction
// bound inside an active boundary, the resource default outside one.
func (s *Service) Accessor(ctx context.Context) Accessor {
	return s.manager.Accessor(ctx, s.resource)
}

// InTransaction runs fn inside a transaction boundary on the service's
// resource.
func (s *Service) InTransaction(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	return s.manager.Run(ctx, s.resource, opts, fn)
}
