// Package logging provides structured, file-based logging with rotation for
// the retrieval core. Logs are written under the vault's sibling metadata
// directory (alongside the vector store and index metadata) so a vault stays
// self-contained; by default, logs also mirror to stderr.
package logging
