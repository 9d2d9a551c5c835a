// Package main provides the entry point for the ShiftDesk backend.
// ShiftDesk is a multi-tenant task-management service: tasks, standard
// operating procedures, clock sessions, reminders and feedback, all scoped
// by role and department. Every request passes through the authorization
// engine before touching storage, and privileged mutations are recorded in
// an append-only audit log.
package main
