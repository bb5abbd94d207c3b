// Package services provides the error taxonomy and context plumbing shared
// by the generation pipeline stages and their collaborators.
package services
