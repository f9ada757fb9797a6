package database

import (
	"time"

	"github.com/strove-app/strove/internal/models"
	"gorm.io/gorm"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// DemoPostings are the research positions available before any professor
// has posted through the API.
var DemoPostings = []models.Posting{
	{
		Professor:        "Dr. Sarah Johnson",
		ProfessorEmail:   "sjohnson@nd.edu",
		Department:       "Computer Science",
		Title:            "Machine Learning Research Assistant",
		Description:      "Join our team working on cutting-edge ML algorithms for healthcare applications.",
		SpotsTotal:       2,
		SpotsFilled:      1,
		Deadline:         date("2026-02-15"),
		PostedDate:       date("2026-01-01"),
		LabName:          "Intelligent Systems Laboratory",
		LabLocation:      "Fitzpatrick Hall, Room 365",
		InternshipLength: "Full Academic Year (Fall & Spring)",
		Summary:          "Undergraduates work with graduate researchers on medical image analysis, outcome prediction and clinical text processing using TensorFlow and PyTorch. Python experience is preferred. Weekly lab meetings, reading groups and one-on-one mentorship; co-authorship opportunities.",
	},
	{
		Professor:        "Dr. Michael Chen",
		ProfessorEmail:   "mchen@nd.edu",
		Department:       "Biology",
		Title:            "Undergraduate Research in Genetics",
		Description:      "Research opportunity studying genetic markers in plant development.",
		SpotsTotal:       3,
		SpotsFilled:      2,
		Deadline:         date("2026-03-01"),
		PostedDate:       date("2026-01-05"),
		LabName:          "Plant Genetics and Development Lab",
		LabLocation:      "Galvin Life Science Center, Room 203",
		InternshipLength: "10 weeks (Summer)",
		Summary:          "A summer project on genes that regulate flowering time and stress response in Arabidopsis and crop plants. Students learn PCR, gel electrophoresis, sequencing and expression analysis, and present their findings at the end of the summer.",
	},
	{
		Professor:        "Dr. Emily Rodriguez",
		ProfessorEmail:   "erodriguez@nd.edu",
		Department:       "Chemistry",
		Title:            "Organic Synthesis Lab Assistant",
		Description:      "Assist with organic synthesis experiments and data analysis.",
		SpotsTotal:       1,
		SpotsFilled:      0,
		Deadline:         date("2026-01-25"),
		PostedDate:       date("2025-12-15"),
		LabName:          "Organic Materials Research Group",
		LabLocation:      "Stepan Chemistry Hall, Room 115",
		InternshipLength: "1 Semester (Fall or Spring)",
		Summary:          "Multi-step synthesis, purification and NMR/IR/MS characterization of conjugated molecules for organic photovoltaics. Requires one semester of organic chemistry and 10-15 hours per week.",
	},
	{
		Professor:        "Dr. James Wilson",
		ProfessorEmail:   "jwilson@nd.edu",
		Department:       "Physics",
		Title:            "Quantum Computing Research",
		Description:      "Explore quantum algorithms and their applications in computing.",
		SpotsTotal:       2,
		SpotsFilled:      1,
		Deadline:         date("2026-02-28"),
		PostedDate:       date("2026-01-10"),
		LabName:          "Quantum Information and Computing Lab",
		LabLocation:      "Nieuwland Science Hall, Room 276",
		InternshipLength: "Full Academic Year (Flexible)",
		Summary:          "Quantum algorithm design, error correction and classical simulation of quantum systems with Qiskit and Cirq. Coursework in quantum mechanics or linear algebra is highly recommended.",
	},
	{
		Professor:        "Dr. Lisa Park",
		ProfessorEmail:   "lpark@nd.edu",
		Department:       "Computer Science",
		Title:            "Human-Computer Interaction Research",
		Description:      "Study user interfaces and accessibility in software design.",
		SpotsTotal:       2,
		SpotsFilled:      0,
		Deadline:         date("2026-03-15"),
		PostedDate:       date("2026-01-12"),
		LabName:          "Interactive Systems Lab",
		LabLocation:      "Fitzpatrick Hall, Room 288",
		InternshipLength: "1-2 Semesters",
		Summary:          "Design, build and evaluate accessible interfaces for diverse users, including people with disabilities. Involves user studies, prototyping and statistical analysis. Web experience (JavaScript, React) is a plus.",
	},
	{
		Professor:        "Dr. Robert Kim",
		ProfessorEmail:   "rkim@nd.edu",
		Department:       "Engineering",
		Title:            "Renewable Energy Systems Design",
		Description:      "Design and test components for solar and wind energy systems.",
		SpotsTotal:       3,
		SpotsFilled:      1,
		Deadline:         date("2026-02-20"),
		PostedDate:       date("2025-12-20"),
		LabName:          "Sustainable Energy Research Laboratory",
		LabLocation:      "Fitzpatrick Hall of Engineering, Room 156",
		InternshipLength: "Full Academic Year",
		Summary:          "System design, performance optimization and economic analysis of photovoltaic and wind installations. Prototype building, field measurements and MATLAB/Python data analysis, 8-12 hours per week.",
	},
}

// SeedPostings inserts DemoPostings when the postings table is empty.
func SeedPostings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Posting{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	postings := make([]models.Posting, len(DemoPostings))
	copy(postings, DemoPostings)
	return db.Create(&postings).Error
}
