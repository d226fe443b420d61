package cards

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"dealflow-ai/internal/index"
	"dealflow-ai/internal/index/mocks"
)

func newCardService(t *testing.T) (*Service, *mocks.MockGateway) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockGateway(ctrl)
	return NewService(gateway), gateway
}

func TestIndexCompanyRejectsMissingID(t *testing.T) {
	svc, _ := newCardService(t)

	err := svc.IndexCompany(context.Background(), Company{Name: "Acme"})
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("IndexCompany error = %v, want ErrMissingID", err)
	}
}

func TestIndexCompanyBuildsSearchableDocument(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().EnsureIndex(ctx, index.CollectionCompanies).Return(nil)
	gateway.EXPECT().
		Upsert(ctx, index.CollectionCompanies, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, doc index.Document) error {
			if doc.ID != "company_acme" || doc.CardID != "company_acme" {
				t.Errorf("doc IDs = %q/%q", doc.ID, doc.CardID)
			}
			if doc.CardType != TypeCompany {
				t.Errorf("CardType = %q", doc.CardType)
			}
			if doc.Title != "Acme" {
				t.Errorf("Title = %q", doc.Title)
			}
			if doc.Content != "Acme Robotics Boston" {
				t.Errorf("Content = %q, want populated fields joined", doc.Content)
			}
			if doc.Metadata["industry"] != "Robotics" || doc.Metadata["website"] != "" {
				t.Errorf("Metadata = %v", doc.Metadata)
			}
			if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
				t.Error("timestamps not set")
			}
			return nil
		})

	err := svc.IndexCompany(ctx, Company{
		ID:       "company_acme",
		Name:     "Acme",
		Industry: "Robotics",
		Location: "Boston",
	})
	if err != nil {
		t.Fatalf("IndexCompany: %v", err)
	}
}

func TestIndexPersonBuildsSearchableDocument(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().EnsureIndex(ctx, index.CollectionPersons).Return(nil)
	gateway.EXPECT().
		Upsert(ctx, index.CollectionPersons, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, doc index.Document) error {
			if doc.CardType != TypePerson {
				t.Errorf("CardType = %q", doc.CardType)
			}
			if doc.Content != "Jane Doe CTO Acme" {
				t.Errorf("Content = %q", doc.Content)
			}
			if doc.Metadata["designation"] != "CTO" {
				t.Errorf("Metadata = %v", doc.Metadata)
			}
			if doc.Metadata["experience_years"] != 12.0 {
				t.Errorf("experience_years = %v", doc.Metadata["experience_years"])
			}
			return nil
		})

	err := svc.IndexPerson(ctx, Person{
		ID:              "person_jane",
		Name:            "Jane Doe",
		Designation:     "CTO",
		Company:         "Acme",
		ExperienceYears: 12,
	})
	if err != nil {
		t.Fatalf("IndexPerson: %v", err)
	}
}

func TestIndexPersonRejectsMissingID(t *testing.T) {
	svc, _ := newCardService(t)

	if err := svc.IndexPerson(context.Background(), Person{Name: "Jane"}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("IndexPerson error = %v, want ErrMissingID", err)
	}
}

func TestGetByIDProbesCompaniesThenPersons(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().
		Get(ctx, index.CollectionCompanies, "person_jane").
		Return(nil, index.ErrNotFound)
	gateway.EXPECT().
		Get(ctx, index.CollectionPersons, "person_jane").
		Return(&index.Document{
			ID:       "person_jane",
			CardType: TypePerson,
			Metadata: map[string]any{"name": "Jane Doe", "company": "Acme"},
		}, nil)

	card, err := svc.GetByID(ctx, "person_jane")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if card.Type != TypePerson || card.Person == nil {
		t.Fatalf("card = %+v", card)
	}
	if card.Person.Name != "Jane Doe" || card.Person.Company != "Acme" {
		t.Errorf("person = %+v", card.Person)
	}
	if card.Name() != "Jane Doe" || card.ID() != "person_jane" {
		t.Errorf("accessors = %q/%q", card.Name(), card.ID())
	}
}

func TestGetByIDCompanyHitShortCircuits(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().
		Get(ctx, index.CollectionCompanies, "company_acme").
		Return(&index.Document{
			ID:       "company_acme",
			Metadata: map[string]any{"name": "Acme", "industry": "Robotics"},
		}, nil)

	card, err := svc.GetByID(ctx, "company_acme")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if card.Type != TypeCompany || card.Company.Industry != "Robotics" {
		t.Fatalf("card = %+v", card)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().Get(ctx, index.CollectionCompanies, "ghost").Return(nil, index.ErrNotFound)
	gateway.EXPECT().Get(ctx, index.CollectionPersons, "ghost").Return(nil, index.ErrNotFound)

	if _, err := svc.GetByID(ctx, "ghost"); !errors.Is(err, index.ErrNotFound) {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
}

func TestListCompaniesMatchAll(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().Exists(ctx, index.CollectionCompanies).Return(true, nil)
	gateway.EXPECT().
		Search(ctx, index.CollectionCompanies, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, q index.Query) ([]index.Hit, error) {
			if _, ok := q.Clause["match_all"]; !ok {
				t.Errorf("clause = %v, want match_all", q.Clause)
			}
			if q.Size != 5 {
				t.Errorf("size = %d", q.Size)
			}
			return []index.Hit{
				{ID: "company_acme", Metadata: map[string]any{"name": "Acme"}},
			}, nil
		})

	companies, err := svc.ListCompanies(ctx, 5)
	if err != nil {
		t.Fatalf("ListCompanies: %v", err)
	}
	if len(companies) != 1 || companies[0].Name != "Acme" {
		t.Fatalf("companies = %+v", companies)
	}
	if companies[0].CardType != TypeCompany {
		t.Errorf("CardType = %q", companies[0].CardType)
	}
}

func TestListPersonsMissingCollection(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().Exists(ctx, index.CollectionPersons).Return(false, nil)

	persons, err := svc.ListPersons(ctx, 10)
	if err != nil {
		t.Fatalf("ListPersons: %v", err)
	}
	if len(persons) != 0 {
		t.Fatalf("persons = %+v, want empty", persons)
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().Delete(ctx, index.CollectionCompanies, "company_acme").Return(nil)
	gateway.EXPECT().Delete(ctx, index.CollectionNotes, "note_company_acme").Return(nil)
	gateway.EXPECT().DeleteByCardID(ctx, index.CollectionDocuments, "company_acme").Return(nil)

	if err := svc.Delete(ctx, "company_acme", TypeCompany); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteCascadeFailuresDoNotFailDelete(t *testing.T) {
	svc, gateway := newCardService(t)
	ctx := context.Background()

	gateway.EXPECT().Delete(ctx, index.CollectionPersons, "person_jane").Return(nil)
	gateway.EXPECT().
		Delete(ctx, index.CollectionNotes, "note_person_jane").
		Return(errors.New("index down"))
	gateway.EXPECT().
		DeleteByCardID(ctx, index.CollectionDocuments, "person_jane").
		Return(errors.New("index down"))

	if err := svc.Delete(ctx, "person_jane", TypePerson); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteUnknownType(t *testing.T) {
	svc, _ := newCardService(t)

	err := svc.Delete(context.Background(), "x", "widget")
	if err == nil || !strings.Contains(err.Error(), "unknown card type") {
		t.Fatalf("Delete error = %v", err)
	}
}

func TestJoinPopulatedSkipsEmptyFields(t *testing.T) {
	if got := joinPopulated("a", "", "b", ""); got != "a b" {
		t.Errorf("joinPopulated = %q", got)
	}
	if got := joinPopulated("", ""); got != "" {
		t.Errorf("joinPopulated = %q, want empty", got)
	}
}
