package quivc

//go:generate sh -c "go run go.uber.org/mock/mockgen -package mocks -destination internal/mocks/stream_manager.go github.com/quivc/quivc StreamManager"
//go:generate sh -c "go run go.uber.org/mock/mockgen -package mocks -destination internal/mocks/loss_detector.go github.com/quivc/quivc LossDetector"
//go:generate sh -c "go run go.uber.org/mock/mockgen -package mocks -destination internal/mocks/congestion_controller.go github.com/quivc/quivc CongestionController"
