package models

import (
	"errors"
	"github.com/samber/lo"
)

type Subject string

const (
	Math         Subject = "Математика"
	Physics      Subject = "Физика"
	Chemistry    Subject = "Химия"
	Biology      Subject = "Биология"
	Russian      Subject = "Русский"
	Biochemistry Subject = "Биохимия"
)

// Subjects is the fixed catalog of tutoring topics.
var Subjects = []Subject{Math, Physics, Chemistry, Biology, Russian, Biochemistry}

// RegistrationSubjects are offered on the subject step. Biochemistry is reserved for applicants.
var RegistrationSubjects = []Subject{Math, Physics, Chemistry, Biology, Russian}

var ErrUnknownSubject = errors.New("unknown subject")

func ToSubject(s string) (Subject, error) {
	subject := Subject(s)
	if !lo.Contains(Subjects, subject) {
		return "", ErrUnknownSubject
	}
	return subject, nil
}

// Classes are grade levels and exam tracks a student can pick.
var Classes = []string{"5", "6", "7", "8", "9", "10", "11", "ОГЭ", "ЕГЭ"}

func IsClass(s string) bool {
	return lo.Contains(Classes, s)
}
