package domain

import "sort"

// LedgerEntry はユーザー2人の間の相殺後の貸し借りです（Amount > 0）
type LedgerEntry struct {
	CreditorID int64
	DebtorID   int64
	Amount     Money
}

// Balance は特定ユーザーから見た相手との残高です。
// 負の値は自分が相手に支払う額、正の値は相手から受け取る額を表します
type Balance struct {
	CounterpartID int64
	Amount        Money
}

// Debtor は未払い総額（相殺前）による集計です
type Debtor struct {
	UserID int64
	Amount Money
}

type userPair struct {
	lo, hi int64
}

// owes は明細が未払いの負債（注文者 != 食べた人）であれば注文者を返します
func owes(item LineItem, orderingUserByOrder map[int64]int64) (int64, bool) {
	if item.Paid || item.Surrender || item.Cost == 0 {
		return 0, false
	}
	orderer, ok := orderingUserByOrder[item.OrderID]
	if !ok || orderer == item.EatingUserID {
		return 0, false
	}
	return orderer, true
}

// NetBalances は未払い明細から2人ごとの残高を両方向で相殺して返します。
// 1組につき高々1件のエントリを返し、残高0の組は含めません
func NetBalances(items []LineItem, orderingUserByOrder map[int64]int64) []LedgerEntry {
	// 正: hi が lo に支払う / 負: lo が hi に支払う
	net := map[userPair]Money{}
	for _, it := range items {
		creditor, ok := owes(it, orderingUserByOrder)
		if !ok {
			continue
		}
		debtor := it.EatingUserID
		if creditor < debtor {
			net[userPair{creditor, debtor}] += it.Cost
		} else {
			net[userPair{debtor, creditor}] -= it.Cost
		}
	}

	entries := make([]LedgerEntry, 0, len(net))
	for p, amount := range net {
		switch {
		case amount > 0:
			entries = append(entries, LedgerEntry{CreditorID: p.lo, DebtorID: p.hi, Amount: amount})
		case amount < 0:
			entries = append(entries, LedgerEntry{CreditorID: p.hi, DebtorID: p.lo, Amount: -amount})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreditorID != entries[j].CreditorID {
			return entries[i].CreditorID < entries[j].CreditorID
		}
		return entries[i].DebtorID < entries[j].DebtorID
	})
	return entries
}

// BalancesFor は userID から見た相手ごとの残高を返します
func BalancesFor(userID int64, items []LineItem, orderingUserByOrder map[int64]int64) []Balance {
	var balances []Balance
	for _, e := range NetBalances(items, orderingUserByOrder) {
		switch userID {
		case e.CreditorID:
			balances = append(balances, Balance{CounterpartID: e.DebtorID, Amount: e.Amount})
		case e.DebtorID:
			balances = append(balances, Balance{CounterpartID: e.CreditorID, Amount: -e.Amount})
		}
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].CounterpartID < balances[j].CounterpartID })
	return balances
}

// Settle は payer と payee の間の未払い明細（両方向）のIDを返します。
// 支払い済みの明細は含まないため、精算後に再実行しても空になります
func Settle(payer, payee int64, items []LineItem, orderingUserByOrder map[int64]int64) []int64 {
	var ids []int64
	for _, it := range items {
		if it.Paid {
			continue
		}
		orderer, ok := orderingUserByOrder[it.OrderID]
		if !ok {
			continue
		}
		if (it.EatingUserID == payer && orderer == payee) || (it.EatingUserID == payee && orderer == payer) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// TopDebtors は食べた人ごとの未払い総額を降順で limit 件まで返します。
// 相手ごとの相殺は行いません
func TopDebtors(items []LineItem, orderingUserByOrder map[int64]int64, limit int) []Debtor {
	gross := map[int64]Money{}
	for _, it := range items {
		if _, ok := owes(it, orderingUserByOrder); !ok {
			continue
		}
		gross[it.EatingUserID] += it.Cost
	}

	debtors := make([]Debtor, 0, len(gross))
	for uid, amount := range gross {
		debtors = append(debtors, Debtor{UserID: uid, Amount: amount})
	}
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].Amount != debtors[j].Amount {
			return debtors[i].Amount > debtors[j].Amount
		}
		return debtors[i].UserID < debtors[j].UserID
	})
	if limit >= 0 && len(debtors) > limit {
		debtors = debtors[:limit]
	}
	return debtors
}
