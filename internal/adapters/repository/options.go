// Package repository defines the profile and group store contracts and errors.
package repository

// Option applies a configuration option to the MongoStore.
type Option func(*MongoStore)

// WithProfilesCollection overrides the profiles collection name.
func WithProfilesCollection(name string) Option {
	return func(s *MongoStore) {
		if name != "" {
			s.profilesName = name
		}
	}
}

// WithGroupsCollection overrides the groups collection name.
func WithGroupsCollection(name string) Option {
	return func(s *MongoStore) {
		if name != "" {
			s.groupsName = name
		}
	}
}
