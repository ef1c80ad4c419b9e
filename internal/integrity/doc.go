// Package integrity implements the write-time rules every entity must satisfy
// before it reaches the store.
//
// Rules are declared as validator/v10 struct tags on the model types and
// checked by Validate. Two custom tags extend the built-in set:
//
//   - enum: the field's type implements model.Enum and must be Valid()
//   - phone: 4 to 15 digits with an optional leading '+', after separators
//     are stripped
//
// Rules that cannot be expressed as tags (minimum age, for example) live
// beside Validate as plain functions. The schema repeats these rules as
// constraints; FromStoreError maps the store's constraint failures onto the
// same apperr taxonomy so callers see one error shape either way.
package integrity
