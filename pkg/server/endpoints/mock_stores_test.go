package endpoints

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

type mockTablesStore struct {
	mock.Mock
}

func (m *mockTablesStore) Select(ctx context.Context, company tenant.ID, table *schema.Table, q *query.Query) ([]store.Row, error) {
	args := m.Called(ctx, company, table.Name, q)
	rows, _ := args.Get(0).([]store.Row)
	return rows, args.Error(1)
}

func (m *mockTablesStore) Count(ctx context.Context, company tenant.ID, table *schema.Table, q *query.Query) (int64, error) {
	args := m.Called(ctx, company, table.Name, q)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTablesStore) Insert(ctx context.Context, company tenant.ID, table *schema.Table, rows []store.Row) ([]store.Row, error) {
	args := m.Called(ctx, company, table.Name, rows)
	out, _ := args.Get(0).([]store.Row)
	return out, args.Error(1)
}

func (m *mockTablesStore) Update(ctx context.Context, company tenant.ID, table *schema.Table, set store.Row, filters []query.Filter) ([]store.Row, error) {
	args := m.Called(ctx, company, table.Name, set, filters)
	out, _ := args.Get(0).([]store.Row)
	return out, args.Error(1)
}

func (m *mockTablesStore) Delete(ctx context.Context, company tenant.ID, table *schema.Table, filters []query.Filter) ([]store.Row, error) {
	args := m.Called(ctx, company, table.Name, filters)
	out, _ := args.Get(0).([]store.Row)
	return out, args.Error(1)
}

type mockCompaniesStore struct {
	mock.Mock
}

func (m *mockCompaniesStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]model.Company)
	return out, args.Error(1)
}

func (m *mockCompaniesStore) GetCompany(ctx context.Context, slug string) (*model.Company, error) {
	args := m.Called(ctx, slug)
	out, _ := args.Get(0).(*model.Company)
	return out, args.Error(1)
}

func (m *mockCompaniesStore) CreateCompany(ctx context.Context, slug, name, ownerLogin string) (*model.Company, []byte, error) {
	args := m.Called(ctx, slug, name, ownerLogin)
	out, _ := args.Get(0).(*model.Company)
	key, _ := args.Get(1).([]byte)
	return out, key, args.Error(2)
}

func (m *mockCompaniesStore) DeleteCompany(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

func (m *mockCompaniesStore) CreateProfile(ctx context.Context, company tenant.ID, login string, role model.Role) (*model.Profile, []byte, error) {
	args := m.Called(ctx, company, login, role)
	out, _ := args.Get(0).(*model.Profile)
	key, _ := args.Get(1).([]byte)
	return out, key, args.Error(2)
}

type mockAuthenticateStore struct {
	mock.Mock
}

func (m *mockAuthenticateStore) GetCredential(ctx context.Context, companySlug, login string) (*store.Credential, error) {
	args := m.Called(ctx, companySlug, login)
	out, _ := args.Get(0).(*store.Credential)
	return out, args.Error(1)
}

func (m *mockAuthenticateStore) ValidateAPIKey(credential *store.Credential, apiKey []byte) bool {
	return model.CompareAPIKey(credential.APIKeyHash, apiKey)
}

func (m *mockAuthenticateStore) RotateAPIKey(ctx context.Context, company tenant.ID, login string) ([]byte, error) {
	args := m.Called(ctx, company, login)
	key, _ := args.Get(0).([]byte)
	return key, args.Error(1)
}

type mockObjectsStore struct {
	mock.Mock
}

func (m *mockObjectsStore) PutObject(ctx context.Context, obj *model.StorageObject) (*model.StorageObject, error) {
	args := m.Called(ctx, obj)
	out, _ := args.Get(0).(*model.StorageObject)
	return out, args.Error(1)
}

func (m *mockObjectsStore) GetObject(ctx context.Context, company tenant.ID, bucket, path string) (*model.StorageObject, error) {
	args := m.Called(ctx, company, bucket, path)
	out, _ := args.Get(0).(*model.StorageObject)
	return out, args.Error(1)
}

func (m *mockObjectsStore) DeleteObject(ctx context.Context, company tenant.ID, bucket, path string) error {
	return m.Called(ctx, company, bucket, path).Error(0)
}

func (m *mockObjectsStore) ListObjects(ctx context.Context, company tenant.ID, bucket, prefix string, limit, offset int) ([]model.StorageObject, error) {
	args := m.Called(ctx, company, bucket, prefix, limit, offset)
	out, _ := args.Get(0).([]model.StorageObject)
	return out, args.Error(1)
}

type mockHealthStore struct {
	err error
}

func (m *mockHealthStore) CheckConnectivity(ctx context.Context) error {
	return m.err
}

// recordingPublisher keeps every published change.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
}

func (p *recordingPublisher) Publish(_ context.Context, changes ...events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, changes...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Changes() []events.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Change(nil), p.changes...)
}
