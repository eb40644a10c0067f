package hospital

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/skosovsky/wardly"
)

// Stop words stripped from a candidate name segment before the token-count
// check. A name is rejected when fewer than two tokens survive.
var nameStopWords = map[string]bool{
	"create": true, "add": true, "patient": true, "with": true,
	"new": true, "register": true, "staff": true, "hire": true,
	"please": true, "a": true, "the": true,
}

// fieldCut marks where the name segment of a request ends: the first field
// keyword after which recognized values (dates, phones, roles) follow.
var fieldCut = regexp.MustCompile(`(?i)\b(?:date of birth|dob|born|phone|tel|gender|department|dept|role|as|ward|bed|floor|status|reason|on|with)\b`)

var (
	datePattern = `(\d{4}-\d{2}-\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{4})`

	reBirthDate    = regexp.MustCompile(`(?i)(?:date of birth|dob|born(?:\s+on)?)[:\s]*` + datePattern)
	reBareDate     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b|\b(\d{1,2}[/-]\d{1,2}[/-]\d{4})\b`)
	reFirstName    = regexp.MustCompile(`(?i)first name(?:\s+is)?[:\s]+([A-Za-z]+)`)
	reLastName     = regexp.MustCompile(`(?i)last name(?:\s+is)?[:\s]+([A-Za-z]+)`)
	reGenderKeyed  = regexp.MustCompile(`(?i)gender[:\s]+([A-Za-z]+)`)
	reGenderBare   = regexp.MustCompile(`(?i)\b(male|female|man|woman)\b`)
	rePhone        = regexp.MustCompile(`(?i)(?:phone|tel|telephone|contact)(?:\s+number)?[:\s]*([+\d][\d\s()\-]{5,})`)
	reDepartmentID = regexp.MustCompile(`(?i)department[_\s]?id[:\s]*([A-Za-z0-9\-]+)`)
	reDepartment   = regexp.MustCompile(`(?i)(?:department|dept\.?)\s+([A-Za-z][A-Za-z ]*)`)
	reRole         = regexp.MustCompile(`(?i)(?:role|position|as a|as)[:\s]+([A-Za-z]+)`)
	reDeptName     = regexp.MustCompile(`(?i)(?:department|dept\.?)(?:\s+(?:called|named))?\s+([A-Za-z][A-Za-z ]*)`)
	reFloor        = regexp.MustCompile(`(?i)(?:floor|level)\s*(\d+)`)
	reBedNumber    = regexp.MustCompile(`(?i)bed(?:\s+number)?[:\s]+([A-Za-z]*\d[\w\-]*)`)
	reWard         = regexp.MustCompile(`(?i)(?:ward|wing)[:\s]+([A-Za-z0-9]+)`)
	reBedStatus    = regexp.MustCompile(`(?i)\b(available|occupied|free|taken)\b`)
	rePatientName  = regexp.MustCompile(`(?i)(?:appointment for|for patient|for)\s+([A-Za-z]+\s+[A-Za-z]+)`)
	reStaffName    = regexp.MustCompile(`(?i)with\s+(?:dr\.?\s+|doctor\s+|nurse\s+)?([A-Za-z]+\s+[A-Za-z]+)`)
	reApptDate     = regexp.MustCompile(`(?i)(?:on|date)[:\s]+` + datePattern)
	reReason       = regexp.MustCompile(`(?i)(?:reason|because of|regarding)[:\s]+([A-Za-z][A-Za-z ]*)`)
)

var genderValues = map[string]string{
	"male": "male", "m": "male", "man": "male",
	"female": "female", "f": "female", "woman": "female",
}

var bedStatusValues = map[string]string{
	"available": "available", "free": "available",
	"occupied": "occupied", "taken": "occupied",
}

// Rules returns the extraction rule tables for every entity in the catalog.
// Each table is an ordered cascade: the first rule that recognizes a field
// wins, keyword-anchored rules sit above bare-pattern fallbacks.
func Rules() []*wardly.EntityRules {
	return []*wardly.EntityRules{
		patientRules(),
		staffRules(),
		departmentRules(),
		bedRules(),
		appointmentRules(),
	}
}

func patientRules() *wardly.EntityRules {
	return &wardly.EntityRules{
		Entity:   KindPatient,
		Tool:     "create_patient",
		Required: []string{"patient_number", "first_name", "last_name", "date_of_birth"},
		Composites: []wardly.CompositeRule{
			{Fields: []string{"first_name", "last_name"}, Recognize: nameTokens},
		},
		Rules: []wardly.FieldRule{
			{Field: "first_name", Recognize: wardly.RegexpRecognizer(reFirstName)},
			{Field: "last_name", Recognize: wardly.RegexpRecognizer(reLastName)},
			{Field: "date_of_birth", Recognize: wardly.RegexpRecognizer(reBirthDate), Normalize: wardly.DateNormalizer},
			{Field: "date_of_birth", Recognize: bareDate, Normalize: wardly.DateNormalizer},
			{Field: "gender", Recognize: wardly.RegexpRecognizer(reGenderKeyed), Normalize: wardly.EnumNormalizer(genderValues)},
			{Field: "gender", Recognize: wardly.RegexpRecognizer(reGenderBare), Normalize: wardly.EnumNormalizer(genderValues)},
			{Field: "phone", Recognize: wardly.RegexpRecognizer(rePhone)},
			{Field: "department_id", Recognize: wardly.RegexpRecognizer(reDepartmentID)},
		},
		ForeignKeys: []wardly.ForeignKey{
			{Field: "department_id", Kind: KindDepartment, Recognize: departmentName},
		},
		Generated: &wardly.GeneratedID{Field: "patient_number", Generate: patientNumber},
		Example:   "create patient John Doe, date of birth 1990-01-15, phone 555-1234",
	}
}

func staffRules() *wardly.EntityRules {
	return &wardly.EntityRules{
		Entity:   KindStaff,
		Tool:     "create_staff",
		Required: []string{"staff_number", "first_name", "last_name", "role"},
		Composites: []wardly.CompositeRule{
			{Fields: []string{"first_name", "last_name"}, Recognize: nameTokens},
		},
		Rules: []wardly.FieldRule{
			{Field: "first_name", Recognize: wardly.RegexpRecognizer(reFirstName)},
			{Field: "last_name", Recognize: wardly.RegexpRecognizer(reLastName)},
			{Field: "role", Recognize: wardly.RegexpRecognizer(reRole), Normalize: lowerTrim},
			{Field: "phone", Recognize: wardly.RegexpRecognizer(rePhone)},
			{Field: "department_id", Recognize: wardly.RegexpRecognizer(reDepartmentID)},
		},
		ForeignKeys: []wardly.ForeignKey{
			{Field: "department_id", Kind: KindDepartment, Recognize: departmentName},
		},
		Generated: &wardly.GeneratedID{Field: "staff_number", Generate: staffNumber},
		Example:   "add staff Jane Smith, role nurse, department Cardiology",
	}
}

func departmentRules() *wardly.EntityRules {
	return &wardly.EntityRules{
		Entity:   KindDepartment,
		Tool:     "create_department",
		Required: []string{"name"},
		Rules: []wardly.FieldRule{
			{Field: "name", Recognize: wardly.RegexpRecognizer(reDeptName), Normalize: trimTrailingFieldWords},
			{Field: "floor", Recognize: wardly.RegexpRecognizer(reFloor), Normalize: wardly.IntNormalizer},
		},
		Example: "create department Cardiology on floor 3",
	}
}

func bedRules() *wardly.EntityRules {
	return &wardly.EntityRules{
		Entity:   KindBed,
		Tool:     "create_bed",
		Required: []string{"bed_number", "ward"},
		Rules: []wardly.FieldRule{
			{Field: "bed_number", Recognize: wardly.RegexpRecognizer(reBedNumber)},
			{Field: "ward", Recognize: wardly.RegexpRecognizer(reWard)},
			{Field: "status", Recognize: wardly.RegexpRecognizer(reBedStatus), Normalize: wardly.EnumNormalizer(bedStatusValues)},
		},
		Example: "add bed B12, ward East, status available",
	}
}

func appointmentRules() *wardly.EntityRules {
	return &wardly.EntityRules{
		Entity:   KindAppointment,
		Tool:     "create_appointment",
		Required: []string{"patient_id", "date"},
		Rules: []wardly.FieldRule{
			{Field: "date", Recognize: wardly.RegexpRecognizer(reApptDate), Normalize: wardly.DateNormalizer},
			{Field: "date", Recognize: bareDate, Normalize: wardly.DateNormalizer},
			{Field: "reason", Recognize: wardly.RegexpRecognizer(reReason)},
		},
		ForeignKeys: []wardly.ForeignKey{
			{Field: "patient_id", Kind: KindPatient, Recognize: wardly.RegexpRecognizer(rePatientName)},
			{Field: "staff_id", Kind: KindStaff, Recognize: wardly.RegexpRecognizer(reStaffName)},
		},
		Example: "create appointment for John Doe with Dr. Alice Brown on 2026-09-15",
	}
}

// nameTokens recognizes a full name in the request's leading segment: cut at
// the first comma or field keyword, tokenize, strip stop words and tokens
// carrying digits. Fewer than two surviving tokens rejects the match; the
// first and last survivors become first and last name.
func nameTokens(text string) ([]string, bool) {
	seg := text
	if i := strings.Index(seg, ","); i >= 0 {
		seg = seg[:i]
	}
	if loc := fieldCut.FindStringIndex(seg); loc != nil {
		seg = seg[:loc[0]]
	}
	var keep []string
	for _, tok := range strings.Fields(seg) {
		if nameStopWords[strings.ToLower(tok)] || strings.ContainsAny(tok, "0123456789") {
			continue
		}
		keep = append(keep, tok)
	}
	if len(keep) < 2 {
		return nil, false
	}
	return []string{keep[0], keep[len(keep)-1]}, true
}

// bareDate matches a date anywhere in the text; it sits below the
// keyword-anchored date rules in the cascade.
func bareDate(text string) (string, bool) {
	m := reBareDate.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// departmentName captures a department's human name (as opposed to an id)
// for foreign-key resolution.
func departmentName(text string) (string, bool) {
	if reDepartmentID.MatchString(text) {
		return "", false
	}
	m := reDepartment.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	name := cutFieldWords(m[1])
	if name == "" {
		return "", false
	}
	return name, true
}

// cutFieldWords drops trailing tokens that belong to the next field phrase
// ("Cardiology on floor" → "Cardiology").
func cutFieldWords(raw string) string {
	s := strings.TrimSpace(raw)
	if loc := fieldCut.FindStringIndex(s); loc != nil {
		s = strings.TrimSpace(s[:loc[0]])
	}
	return s
}

func trimTrailingFieldWords(raw string) (any, error) {
	return cutFieldWords(raw), nil
}

func lowerTrim(raw string) (any, error) {
	return strings.ToLower(strings.TrimSpace(raw)), nil
}

// patientNumber and staffNumber synthesize record numbers from the clock:
// a fixed prefix plus unix seconds.
func patientNumber(now time.Time) string {
	return "P" + strconv.FormatInt(now.Unix(), 10)
}

func staffNumber(now time.Time) string {
	return "S" + strconv.FormatInt(now.Unix(), 10)
}
