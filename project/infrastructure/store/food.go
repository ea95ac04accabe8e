package store

import (
	"context"
	"fmt"
	"time"

	"timebot/project/domain"
)

type foodRepo struct {
	q querier
}

const orderColumns = `id, ordering_user_id, order_date, link, channel_id, checked_out, created_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (*domain.FoodOrder, error) {
	var o domain.FoodOrder
	if err := row.Scan(&o.ID, &o.OrderingUserID, &o.OrderDate, &o.Link, &o.ChannelID, &o.CheckedOut, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.OrderDate = domain.DateOf(o.OrderDate)
	return &o, nil
}

func (r *foodRepo) CreateOrder(ctx context.Context, o *domain.FoodOrder) error {
	if err := o.Validate(); err != nil {
		return fmt.Errorf("postgres: 注文検証失敗: %w", err)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO food_orders (id, ordering_user_id, order_date, link, channel_id, checked_out, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.OrderingUserID, o.OrderDate, o.Link, o.ChannelID, o.CheckedOut, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: 注文登録失敗: %w", err)
	}
	return nil
}

func (r *foodRepo) GetOrder(ctx context.Context, id int64) (*domain.FoodOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM food_orders WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("postgres: 注文取得失敗 (id=%d): %w", id, notFound(err))
	}
	return o, nil
}

func (r *foodRepo) FindOpenOrder(ctx context.Context, channelID string, date time.Time) (*domain.FoodOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM food_orders
		WHERE channel_id = $1 AND order_date = $2 AND NOT checked_out`, channelID, date))
	if err != nil {
		return nil, fmt.Errorf("postgres: 未締切の注文取得失敗 (channel=%s): %w", channelID, notFound(err))
	}
	return o, nil
}

func (r *foodRepo) Checkout(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `UPDATE food_orders SET checked_out = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres: 注文締切失敗 (id=%d): %w", id, err)
	}
	return nil
}

func (r *foodRepo) AddItem(ctx context.Context, it *domain.LineItem) error {
	if err := it.Validate(); err != nil {
		return fmt.Errorf("postgres: 明細検証失敗: %w", err)
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO food_items (id, order_id, eating_user_id, description, cost, paid, surrender, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID, it.OrderID, it.EatingUserID, it.Description, int64(it.Cost), it.Paid, it.Surrender, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: 明細登録失敗: %w", err)
	}
	return nil
}

func scanItem(row interface{ Scan(dest ...any) error }, extra ...any) (*domain.LineItem, error) {
	var (
		it   domain.LineItem
		cost int64
	)
	dest := append([]any{&it.ID, &it.OrderID, &it.EatingUserID, &it.Description, &cost, &it.Paid, &it.Surrender, &it.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	it.Cost = domain.Money(cost)
	return &it, nil
}

func (r *foodRepo) ListItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, eating_user_id, description, cost, paid, surrender, created_at
		FROM food_items WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("postgres: 明細取得失敗 (order=%d): %w", orderID, err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: 明細読み取り失敗: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *foodRepo) UnpaidItems(ctx context.Context, userID int64) ([]domain.LineItem, map[int64]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT i.id, i.order_id, i.eating_user_id, i.description, i.cost, i.paid, i.surrender, i.created_at,
		       o.ordering_user_id
		FROM food_items i
		JOIN food_orders o ON o.id = i.order_id
		WHERE NOT i.paid
		  AND ($1::bigint = 0 OR i.eating_user_id = $1 OR o.ordering_user_id = $1)
		ORDER BY i.id
		FOR UPDATE OF i`, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: 未払い明細取得失敗: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	orderers := map[int64]int64{}
	for rows.Next() {
		var orderer int64
		it, err := scanItem(rows, &orderer)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: 未払い明細読み取り失敗: %w", err)
		}
		items = append(items, *it)
		orderers[it.OrderID] = orderer
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return items, orderers, nil
}

func (r *foodRepo) MarkPaid(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx, `UPDATE food_items SET paid = true WHERE id = ANY($1) AND NOT paid`, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: 支払い済み更新失敗: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *foodRepo) OrderChannels(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT channel_id FROM food_orders WHERE created_at >= $1`, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: 注文チャンネル取得失敗: %w", err)
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var ch string
		if err := rows.Scan(&ch); err != nil {
			return nil, fmt.Errorf("postgres: 注文チャンネル読み取り失敗: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}
