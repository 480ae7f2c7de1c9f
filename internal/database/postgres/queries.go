package postgres

// SQL used for session introspection. The schema must be re-queried after a
// search-path change because the server resolves what was requested.
const queryCurrentSchema = `SELECT current_schema()`
