package authkit

import "time"

// ListOptions provides pagination for list operations. Results are always
// ordered by id so pages are stable.
type ListOptions struct {
	Limit  int
	Offset int
}

// NewListOptions creates ListOptions with the default page size.
func NewListOptions() ListOptions {
	return ListOptions{Limit: 100}
}

// WithLimit sets the page size.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithOffset sets the page offset.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithPagination sets both limit and offset.
func (o ListOptions) WithPagination(limit, offset int) ListOptions {
	o.Limit = limit
	o.Offset = offset
	return o
}

func (o ListOptions) limitOrDefault() int {
	if o.Limit <= 0 {
		return 100
	}
	return o.Limit
}

// AuditFilter provides options for filtering grant audit log queries.
type AuditFilter struct {
	// Filter by actor who performed the mutation
	ActorID string

	// Filter by subject of the mutation (the user or role granted to)
	SubjectKind PermissionSource
	SubjectID   string

	// Filter by audit action type
	Action AuditAction

	// Filter by resource
	ResourceID string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

func (f AuditFilter) limitOrDefault() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// NewAuditFilter creates an AuditFilter with default values.
func NewAuditFilter() AuditFilter {
	return AuditFilter{Limit: 100}
}

// WithActor sets the actor ID filter.
func (f AuditFilter) WithActor(actorID string) AuditFilter {
	f.ActorID = actorID
	return f
}

// WithSubject sets the subject filter.
func (f AuditFilter) WithSubject(kind PermissionSource, id string) AuditFilter {
	f.SubjectKind = kind
	f.SubjectID = id
	return f
}

// WithAuditAction sets the action filter.
func (f AuditFilter) WithAuditAction(action AuditAction) AuditFilter {
	f.Action = action
	return f
}

// WithResource sets the resource filter.
func (f AuditFilter) WithResource(resourceID string) AuditFilter {
	f.ResourceID = resourceID
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditFilter) WithTimeRange(since, until time.Time) AuditFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithSince sets the start time filter.
func (f AuditFilter) WithSince(since time.Time) AuditFilter {
	f.Since = since
	return f
}

// WithUntil sets the end time filter.
func (f AuditFilter) WithUntil(until time.Time) AuditFilter {
	f.Until = until
	return f
}

// WithLimit sets the limit for results.
func (f AuditFilter) WithLimit(limit int) AuditFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the offset for pagination.
func (f AuditFilter) WithOffset(offset int) AuditFilter {
	f.Offset = offset
	return f
}

// WithPagination sets both limit and offset.
func (f AuditFilter) WithPagination(limit, offset int) AuditFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
