// Package notify sends the transactional email behind subscription events.
//
// A Mailer renders Liquid templates for each notification kind and hands the
// result to a Transport: SES, Resend, or a log-only transport for local runs.
package notify
