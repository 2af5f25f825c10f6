package main

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/complaint-desk/internal/service"
)

type studentsFile struct {
	Students []studentRecord `yaml:"students"`
}

type studentRecord struct {
	StudentID string `yaml:"studentId"`
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	Course    string `yaml:"course"`
	YearLevel string `yaml:"yearLevel"`
	Password  string `yaml:"password"`
}

func (r studentRecord) input() service.RegisterStudentInput {
	return service.RegisterStudentInput{
		StudentID: r.StudentID,
		Name:      r.Name,
		Email:     r.Email,
		Course:    r.Course,
		YearLevel: r.YearLevel,
		Password:  r.Password,
	}
}

// loadStudents decodes the seed file and rejects records missing required
// fields or repeating a student id.
func loadStudents(r io.Reader) ([]studentRecord, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file studentsFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, err
	}

	seen := make(map[string]int, len(file.Students))
	for i, student := range file.Students {
		if student.StudentID == "" || student.Name == "" || student.Email == "" || student.Password == "" {
			return nil, fmt.Errorf("student #%d: studentId, name, email and password are required", i+1)
		}
		if first, dup := seen[student.StudentID]; dup {
			return nil, fmt.Errorf("student #%d: duplicate studentId %q (first at #%d)", i+1, student.StudentID, first)
		}
		seen[student.StudentID] = i + 1
	}
	return file.Students, nil
}
