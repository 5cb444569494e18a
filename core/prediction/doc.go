// Package prediction defines the port used to obtain a cardiovascular risk
// assessment for a completed form. Implementations talk to a remote model;
// callers only see a Result or one of the two error kinds declared here.
package prediction
