// Package cli implements the patientd command tree.
package cli
