// Package domain contains the memo and review state entities and their
// validation rules. Scheduling lives in the srs subpackage and session
// selection in selection.
package domain
