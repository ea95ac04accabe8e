package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/types/known/timestamppb"

	"timebot/project/infrastructure/config"
	"timebot/project/service"
)

// CheckoutPath は注文締め忘れ通知のコールバック先です
const CheckoutPath = "/tasks/food-checkout"

// taskCreator は *cloudtasks.Client のうち使用する部分です
type taskCreator interface {
	CreateTask(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) (*cloudtaskspb.Task, error)
	Close() error
}

// CloudTasksClient は service.TaskPort の Cloud Tasks 実装です
type CloudTasksClient struct {
	cli      taskCreator
	queue    string
	audience string // OIDC Audience (Cloud Run サービスの URL)
	svcAcct  string // Service Account メールアドレス
}

// NewCloudTasksClient は Cloud Tasks クライアントを初期化します
func NewCloudTasksClient(ctx context.Context, cfg *config.Config) (*CloudTasksClient, error) {
	cli, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("cloudtasks: クライアント初期化失敗: %w", err)
	}
	return newClient(cli, cfg), nil
}

func newClient(cli taskCreator, cfg *config.Config) *CloudTasksClient {
	return &CloudTasksClient{
		cli:      cli,
		queue:    cfg.TasksQueuePath(),
		audience: strings.TrimSuffix(cfg.Tasks.Audience, "/"),
		svcAcct:  cfg.Tasks.ServiceAccount,
	}
}

// EnqueueCheckout は runAt に注文締め忘れ通知を実行するタスクを登録します
func (ct *CloudTasksClient) EnqueueCheckout(ctx context.Context, runAt time.Time, payload *service.TaskPayload) error {
	return ct.enqueueTask(ctx, CheckoutPath, runAt, payload)
}

// enqueueTask はタスクをキューに登録します
func (ct *CloudTasksClient) enqueueTask(ctx context.Context, path string, runAt time.Time, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cloudtasks: ペイロード JSON 化失敗: %w", err)
	}

	req := &cloudtaskspb.CreateTaskRequest{
		Parent: ct.queue,
		Task: &cloudtaskspb.Task{
			MessageType: &cloudtaskspb.Task_HttpRequest{
				HttpRequest: &cloudtaskspb.HttpRequest{
					HttpMethod: cloudtaskspb.HttpMethod_POST,
					Url:        ct.audience + path,
					Headers:    map[string]string{"Content-Type": "application/json"},
					Body:       body,
					AuthorizationHeader: &cloudtaskspb.HttpRequest_OidcToken{
						OidcToken: &cloudtaskspb.OidcToken{
							ServiceAccountEmail: ct.svcAcct,
							Audience:            ct.audience,
						},
					},
				},
			},
			ScheduleTime: timestamppb.New(runAt),
		},
	}

	if _, err := ct.cli.CreateTask(ctx, req); err != nil {
		return fmt.Errorf("cloudtasks: タスク登録失敗 (queue=%s, path=%s): %w", ct.queue, path, err)
	}
	return nil
}

// Close は Cloud Tasks クライアントを閉じます
func (ct *CloudTasksClient) Close() error {
	if ct.cli != nil {
		return ct.cli.Close()
	}
	return nil
}
