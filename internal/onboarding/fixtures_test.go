package onboarding

import "time"

var evalTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

const (
	typeOfficialID DocumentTypeID = iota + 1
	typeProofOfAddress
	typeArticlesOfIncorporation
	typeAccountStatement
	typePopulationCertificate
	typeTaxStatus
)

func days(n int) *int { return &n }

func testCatalog() []DocumentType {
	return []DocumentType{
		{ID: typeOfficialID, Name: "Official ID", AppliesToIndividual: true, AppliesToIndividualWithBusiness: true},
		{ID: typeProofOfAddress, Name: "Proof of address", AppliesToIndividual: true, AppliesToIndividualWithBusiness: true, AppliesToLegalEntity: true, ValidityDays: days(90)},
		{ID: typeArticlesOfIncorporation, Name: "Articles of incorporation", AppliesToLegalEntity: true},
		{ID: typeAccountStatement, Name: "Account statement", AppliesToIndividual: true, AppliesToIndividualWithBusiness: true, ValidityDays: days(30), Optional: true},
		{ID: typePopulationCertificate, Name: "Population identifier certificate", AppliesToIndividual: true, AppliesToIndividualWithBusiness: true, Optional: true},
		{ID: typeTaxStatus, Name: "Tax status certificate", AppliesToIndividual: true, AppliesToIndividualWithBusiness: true, AppliesToLegalEntity: true, ValidityDays: days(30), Optional: true},
	}
}

func individualClient() Client {
	birth := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	return Client{
		ID:           1,
		PersonType:   PersonIndividual,
		FirstName:    "Ana",
		LastName:     "Garcia",
		TaxID:        "ABCD800101XYZ",
		PopulationID: "ABCD800101HDFRRN09",
		Email:        "ana@example.com",
		Phone:        "5512345678",
		Address:      Address{Street: "Insurgentes Sur", PostalCode: "06600"},
		BirthDate:    &birth,
	}
}

func entityClient() Client {
	founded := time.Date(2010, 6, 1, 0, 0, 0, 0, time.UTC)
	return Client{
		ID:                  2,
		PersonType:          PersonLegalEntity,
		CorporateName:       "Acme Logistica SA de CV",
		LegalRepresentative: "Luis Perez",
		TaxID:               "ABC800101XY1",
		Email:               "finance@acme.example",
		Phone:               "5598765432",
		Address:             Address{PostalCode: "11000"},
		IncorporationDate:   &founded,
	}
}

func doc(id DocumentID, client ClientID, typeID DocumentTypeID, status DocumentStatus, submittedDaysAgo int) Document {
	return Document{
		ID:          id,
		ClientID:    client,
		TypeID:      typeID,
		SubmittedAt: evalTime.AddDate(0, 0, -submittedDaysAgo),
		Status:      status,
	}
}

func app(id ApplicationID, client ClientID, status ApplicationStatus) Application {
	return Application{ID: id, ClientID: client, Status: status}
}

func inputFor(c Client, docs []Document, apps []Application) Input {
	return Input{Client: c, Documents: docs, Applications: apps, Catalog: testCatalog(), Now: evalTime}
}

func resultsFor(results []ValidationResult, rule RuleID) []ValidationResult {
	var out []ValidationResult
	for _, r := range results {
		if r.RuleID == rule {
			out = append(out, r)
		}
	}
	return out
}
