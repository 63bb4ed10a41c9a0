package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"gorm.io/gorm"
)

func newTestReviewService(db *gorm.DB) *ReviewService {
	return NewReviewService(
		repository.NewUnitOfWork(db),
		repository.NewReviewRepository(db),
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewNotificationRepository(db),
		NopPublisher(),
	)
}

var testOrderSeq atomic.Int64

// seedDeliveredOrder 直接落一张已送达订单，作为评价资格凭证
func seedDeliveredOrder(t *testing.T, db *gorm.DB, customerID int64, product *model.Product, status string) *model.Order {
	t.Helper()
	order := &model.Order{
		OrderNo:       fmt.Sprintf("BM-TEST-%d", testOrderSeq.Add(1)),
		CustomerID:    customerID,
		Status:        status,
		PaymentMethod: model.PaymentMethodCard,
		PaymentStatus: model.PaymentStatusPaid,
		Items: []model.OrderItem{{
			ProductID:      product.ID,
			SupplierID:     product.SupplierID,
			ProductName:    product.Name,
			Quantity:       1,
			UnitPriceCents: product.PriceCents,
			TotalCents:     product.PriceCents,
		}},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}
	return order
}

func TestReviewService_CreateReview_RequiresDeliveredOrder(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestReviewService(db)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)

	// 订单还在备货中，不具备评价资格
	order := seedDeliveredOrder(t, db, customer.ID, product, model.OrderStatusProcessing)

	_, err := svc.CreateReview(context.Background(), user.ID, &dto.CreateReviewRequest{
		ProductID: product.ID,
		OrderID:   order.ID,
		Rating:    5,
	})
	if !errors.Is(err, ErrReviewNotEligible) {
		t.Fatalf("未送达订单应拒绝评价, got %v", err)
	}
}

func TestReviewService_CreateReview_RefreshesRatings(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestReviewService(db)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	supplierUser, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	order := seedDeliveredOrder(t, db, customer.ID, product, model.OrderStatusDelivered)

	info, err := svc.CreateReview(context.Background(), user.ID, &dto.CreateReviewRequest{
		ProductID: product.ID,
		OrderID:   order.ID,
		Rating:    4,
		Title:     "Solid cement",
		Body:      "Arrived dry and on time.",
	})
	if err != nil {
		t.Fatalf("评价失败: %v", err)
	}
	if info.Rating != 4 {
		t.Errorf("rating = %d, want 4", info.Rating)
	}

	// 商品与供应商评分聚合同步刷新
	var freshProduct model.Product
	db.First(&freshProduct, product.ID)
	if freshProduct.RatingAvg != 4 || freshProduct.RatingCount != 1 {
		t.Errorf("product rating = %.1f/%d, want 4.0/1", freshProduct.RatingAvg, freshProduct.RatingCount)
	}
	var freshSupplier model.Supplier
	db.First(&freshSupplier, supplier.ID)
	if freshSupplier.RatingAvg != 4 || freshSupplier.RatingCount != 1 {
		t.Errorf("supplier rating = %.1f/%d, want 4.0/1", freshSupplier.RatingAvg, freshSupplier.RatingCount)
	}

	// 供应商收到新评价通知
	var notif model.Notification
	if err := db.Where("user_id = ? AND type = ?", supplierUser.ID, model.NotifyNewReview).
		First(&notif).Error; err != nil {
		t.Errorf("供应商应收到新评价通知: %v", err)
	}
}

func TestReviewService_CreateReview_OncePerOrder(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestReviewService(db)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	order := seedDeliveredOrder(t, db, customer.ID, product, model.OrderStatusDelivered)
	ctx := context.Background()

	req := &dto.CreateReviewRequest{ProductID: product.ID, OrderID: order.ID, Rating: 5}
	if _, err := svc.CreateReview(ctx, user.ID, req); err != nil {
		t.Fatalf("首次评价失败: %v", err)
	}
	_, err := svc.CreateReview(ctx, user.ID, req)
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Fatalf("重复评价应拒绝, got %v", err)
	}
}

func TestReviewService_ReplyReview(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestReviewService(db)

	user, customer := seedCustomer(t, db, "buyer@example.com")
	vendorUser, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	otherUser, _ := seedSupplier(t, db, "other@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	order := seedDeliveredOrder(t, db, customer.ID, product, model.OrderStatusDelivered)
	ctx := context.Background()

	review, err := svc.CreateReview(ctx, user.ID, &dto.CreateReviewRequest{
		ProductID: product.ID, OrderID: order.ID, Rating: 2, Body: "Bags were torn.",
	})
	if err != nil {
		t.Fatalf("评价失败: %v", err)
	}

	// 非商品归属方不得回复
	_, err = svc.ReplyReview(ctx, otherUser.ID, review.ID, &dto.ReplyReviewRequest{Reply: "sorry"})
	if !errors.Is(err, ErrNotReviewRecipient) {
		t.Fatalf("他人商品的评价应拒绝回复, got %v", err)
	}

	replied, err := svc.ReplyReview(ctx, vendorUser.ID, review.ID, &dto.ReplyReviewRequest{
		Reply: "Replacement bags dispatched.",
	})
	if err != nil {
		t.Fatalf("回复失败: %v", err)
	}
	if replied.SupplierReply == "" || replied.RepliedAt == nil {
		t.Error("回复内容与时间应已写入")
	}

	// 仅可回复一次
	_, err = svc.ReplyReview(ctx, vendorUser.ID, review.ID, &dto.ReplyReviewRequest{Reply: "again"})
	if !errors.Is(err, ErrAlreadyReplied) {
		t.Fatalf("重复回复应拒绝, got %v", err)
	}
}

func TestReviewService_ListProductReviews_Summary(t *testing.T) {
	db := openSvcDB(t)
	svc := newTestReviewService(db)

	_, supplier := seedSupplier(t, db, "vendor@example.com", model.SupplierStatusApproved)
	product := seedProduct(t, db, supplier.ID, 1000, 10)
	ctx := context.Background()

	ratings := []int{5, 5, 3}
	for i, rating := range ratings {
		user, customer := seedCustomer(t, db, "buyer"+string(rune('a'+i))+"@example.com")
		order := seedDeliveredOrder(t, db, customer.ID, product, model.OrderStatusDelivered)
		if _, err := svc.CreateReview(ctx, user.ID, &dto.CreateReviewRequest{
			ProductID: product.ID, OrderID: order.ID, Rating: rating,
		}); err != nil {
			t.Fatalf("评价 %d 失败: %v", i, err)
		}
	}

	page, err := svc.ListProductReviews(ctx, product.ID, &dto.ReviewListRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("查询评价失败: %v", err)
	}
	if page.Total != 3 || len(page.List) != 3 {
		t.Errorf("total/list = %d/%d, want 3/3", page.Total, len(page.List))
	}
	if page.Summary.Count != 3 {
		t.Errorf("summary count = %d, want 3", page.Summary.Count)
	}
	if page.Summary.Histogram[5] != 2 || page.Summary.Histogram[3] != 1 {
		t.Errorf("histogram = %v, want 5星×2 3星×1", page.Summary.Histogram)
	}
}
