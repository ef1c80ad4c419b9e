// Package model defines the persisted entity types of the safety backend.
//
// Every entity is a plain struct whose fields map one-to-one onto a column of
// the SQLite schema in internal/store. Enumerated columns are typed strings
// with a Valid method; free-form JSON columns of the original backend are
// modeled as typed records (NotificationPreferences, PrivacySettings,
// AvailabilityHours) with documented defaults.
//
// Struct tags:
//   - json: wire and error-reporting name of the field
//   - validate: integrity rules applied by internal/integrity before any write
//
// Entities that carry an updated_at column implement Touchable so the
// derived-effect layer can stamp them on update. Append-only entities
// (Message, Evidence, Notification, Review) deliberately do not.
package model
