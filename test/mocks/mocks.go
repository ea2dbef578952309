// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `make mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/inspection_repository.go -destination=inspection_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/inspection_service.go -destination=inspection_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/auth_service.go -destination=auth_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/tasks.go -destination=tasks_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/export_service.go -destination=export_service_mock.go -package=mocks
