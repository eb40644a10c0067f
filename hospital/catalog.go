// Package hospital is the concrete catalog the wardly engine ships with:
// tool descriptors, extraction rules, and a backend client for a hospital
// records system (patients, staff, departments, beds, appointments).
package hospital

import (
	"strings"

	"github.com/skosovsky/wardly"
)

// Entity kinds.
const (
	KindPatient     = "patient"
	KindStaff       = "staff"
	KindDepartment  = "department"
	KindBed         = "bed"
	KindAppointment = "appointment"
)

// Descriptors returns the full tool catalog: a create/list pair per entity.
// The catalog is static; register it once at startup.
func Descriptors() []*wardly.ToolDescriptor {
	return []*wardly.ToolDescriptor{
		{
			Name:        "create_patient",
			Description: "Register a new patient record",
			Category:    wardly.CategoryCreate,
			Fields: []wardly.FieldSpec{
				{Name: "patient_number", Type: wardly.FieldString, Required: true, Description: "Unique patient number, generated when omitted"},
				{Name: "first_name", Type: wardly.FieldString, Required: true},
				{Name: "last_name", Type: wardly.FieldString, Required: true},
				{Name: "date_of_birth", Type: wardly.FieldDate, Required: true, Description: "Date of birth, YYYY-MM-DD"},
				{Name: "gender", Type: wardly.FieldEnum, Enum: []string{"male", "female"}},
				{Name: "phone", Type: wardly.FieldString},
				{Name: "department_id", Type: wardly.FieldString, Description: "Identifier of the patient's department"},
			},
		},
		{
			Name:        "list_patients",
			Description: "List all patient records",
			Category:    wardly.CategoryQuery,
		},
		{
			Name:        "create_staff",
			Description: "Register a new staff member",
			Category:    wardly.CategoryCreate,
			Fields: []wardly.FieldSpec{
				{Name: "staff_number", Type: wardly.FieldString, Required: true, Description: "Unique staff number, generated when omitted"},
				{Name: "first_name", Type: wardly.FieldString, Required: true},
				{Name: "last_name", Type: wardly.FieldString, Required: true},
				{Name: "role", Type: wardly.FieldString, Required: true, Description: "Job role, e.g. doctor or nurse"},
				{Name: "department_id", Type: wardly.FieldString},
				{Name: "phone", Type: wardly.FieldString},
			},
		},
		{
			Name:        "list_staff",
			Description: "List all staff members",
			Category:    wardly.CategoryQuery,
		},
		{
			Name:        "create_department",
			Description: "Create a new department",
			Category:    wardly.CategoryCreate,
			Fields: []wardly.FieldSpec{
				{Name: "name", Type: wardly.FieldString, Required: true},
				{Name: "floor", Type: wardly.FieldInteger},
			},
		},
		{
			Name:        "list_departments",
			Description: "List all departments",
			Category:    wardly.CategoryQuery,
		},
		{
			Name:        "create_bed",
			Description: "Add a bed to a ward",
			Category:    wardly.CategoryCreate,
			Fields: []wardly.FieldSpec{
				{Name: "bed_number", Type: wardly.FieldString, Required: true},
				{Name: "ward", Type: wardly.FieldString, Required: true},
				{Name: "status", Type: wardly.FieldEnum, Enum: []string{"available", "occupied"}},
			},
		},
		{
			Name:        "list_beds",
			Description: "List all beds and their status",
			Category:    wardly.CategoryQuery,
		},
		{
			Name:        "create_appointment",
			Description: "Schedule an appointment for a patient",
			Category:    wardly.CategoryCreate,
			Fields: []wardly.FieldSpec{
				{Name: "patient_id", Type: wardly.FieldString, Required: true, Description: "Identifier of the patient"},
				{Name: "date", Type: wardly.FieldDate, Required: true, Description: "Appointment date, YYYY-MM-DD"},
				{Name: "staff_id", Type: wardly.FieldString, Description: "Identifier of the attending staff member"},
				{Name: "reason", Type: wardly.FieldString},
			},
		},
		{
			Name:        "list_appointments",
			Description: "List all appointments",
			Category:    wardly.CategoryQuery,
		},
	}
}

// KindSpecs returns the resolver specs for the kinds foreign keys point at.
// Patients and staff resolve by full name, departments by name.
func KindSpecs() []wardly.KindSpec {
	return []wardly.KindSpec{
		{Kind: KindDepartment, IDField: "id", NameOf: func(rec map[string]any) string {
			return stringField(rec, "name")
		}},
		{Kind: KindPatient, IDField: "id", NameOf: fullName},
		{Kind: KindStaff, IDField: "id", NameOf: fullName},
	}
}

func fullName(rec map[string]any) string {
	return strings.TrimSpace(stringField(rec, "first_name") + " " + stringField(rec, "last_name"))
}

func stringField(rec map[string]any, key string) string {
	s, _ := rec[key].(string)
	return s
}
