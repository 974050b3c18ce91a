package audit

// WithTenantID sets the tenant scope explicitly, overriding any context extractor.
func WithTenantID(tenantID string) EventOption {
	return func(e *Event) {
		e.TenantID = tenantID
	}
}

// WithIP sets the coarse client network origin explicitly.
func WithIP(ip string) EventOption {
	return func(e *Event) {
		e.IP = ip
	}
}

// WithMetadata adds a metadata entry to the event.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}
