package namegen

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/meimei/internal/model"
)

// mockNameRepo はNameRepositoryのモック実装。
type mockNameRepo struct {
	findByIDFn           func(ctx context.Context, id string) (*model.Name, error)
	listRandomByFilterFn func(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error)
	listByIDsFn          func(ctx context.Context, ids []string) ([]model.Name, error)
}

func (m *mockNameRepo) FindByID(ctx context.Context, id string) (*model.Name, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockNameRepo) ListRandomByFilter(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error) {
	if m.listRandomByFilterFn != nil {
		return m.listRandomByFilterFn(ctx, gender, style, limit)
	}
	return nil, nil
}

func (m *mockNameRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Name, error) {
	if m.listByIDsFn != nil {
		return m.listByIDsFn(ctx, ids)
	}
	return []model.Name{}, nil
}

func TestService_Generate_ClampsCount(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		wantLimit int
	}{
		{"ゼロはデフォルト値", 0, model.FilterCountDefault},
		{"上限超えはクランプ", 500, model.FilterCountMax},
		{"負数は最小値", -3, model.FilterCountMin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			repo := &mockNameRepo{
				listRandomByFilterFn: func(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error) {
					gotLimit = limit
					return []model.Name{}, nil
				},
			}
			svc := NewService(repo)

			if _, err := svc.Generate(context.Background(), model.NameFilter{Count: tt.count}); err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", gotLimit, tt.wantLimit)
			}
		})
	}
}

func TestService_Generate_InvalidEnumsFailOpen(t *testing.T) {
	var gotGender model.Gender
	var gotStyle model.Style
	repo := &mockNameRepo{
		listRandomByFilterFn: func(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error) {
			gotGender, gotStyle = gender, style
			return []model.Name{}, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Generate(context.Background(), model.NameFilter{
		Gender: model.Gender("dragon"),
		Style:  model.Style("baroque"),
		Count:  10,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if gotGender != "" {
		t.Errorf("gender = %q, want unset", gotGender)
	}
	if gotStyle != "" {
		t.Errorf("style = %q, want unset", gotStyle)
	}
}

func TestService_Generate_ShortResultIsNotAnError(t *testing.T) {
	repo := &mockNameRepo{
		listRandomByFilterFn: func(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error) {
			// 要求より少ない件数しか返せない
			return []model.Name{{ID: "n1", Name: "Emma"}}, nil
		},
	}
	svc := NewService(repo)

	names, err := svc.Generate(context.Background(), model.NameFilter{Count: 10})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(names) != 1 {
		t.Errorf("len(names) = %d, want 1", len(names))
	}
}

func TestService_Generate_RepoError(t *testing.T) {
	repo := &mockNameRepo{
		listRandomByFilterFn: func(ctx context.Context, gender model.Gender, style model.Style, limit int) ([]model.Name, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(repo)

	if _, err := svc.Generate(context.Background(), model.NameFilter{Count: 10}); err == nil {
		t.Fatal("expected error when repository fails")
	}
}
