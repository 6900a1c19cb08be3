// Package services defines the error taxonomy shared by the external
// collaborator clients and hosts one subpackage per collaborator.
package services
