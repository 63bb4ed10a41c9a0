package service

import (
	"context"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
)

// ==================== ReviewService 评价服务 ====================

// ReviewService 商品评价
// 验证购买：只有包含该商品的已送达订单的买家才能评价，
// 评价写入与商品/供应商评分聚合在同一事务内完成
type ReviewService struct {
	uow          *repository.UnitOfWork
	reviewRepo   repository.ReviewRepository
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	supplierRepo repository.SupplierRepository
	notifRepo    repository.NotificationRepository
	events       EventPublisher
}

// NewReviewService 创建评价服务
func NewReviewService(
	uow *repository.UnitOfWork,
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	supplierRepo repository.SupplierRepository,
	notifRepo repository.NotificationRepository,
	events EventPublisher,
) *ReviewService {
	return &ReviewService{
		uow:          uow,
		reviewRepo:   reviewRepo,
		productRepo:  productRepo,
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		notifRepo:    notifRepo,
		events:       events,
	}
}

// ==================== 发表评价 ====================

// CreateReview 发表评价（验证购买）
func (s *ReviewService) CreateReview(ctx context.Context, userID int64, req *dto.CreateReviewRequest) (*dto.ReviewInfo, error) {
	customer, err := s.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	// 评价资格：存在包含该商品的已送达订单
	eligible, err := s.orderRepo.HasDeliveredProduct(ctx, customer.ID, req.ProductID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrReviewNotEligible
	}

	exists, err := s.reviewRepo.Exists(ctx, req.ProductID, customer.ID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	review := &model.Review{
		ProductID:  req.ProductID,
		CustomerID: customer.ID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Title:      req.Title,
		Body:       req.Body,
		Images:     pq.StringArray(req.Images),
	}

	// 评价与评分聚合同事务落库
	err = s.uow.Transaction(ctx, func(u *repository.UnitOfWork) error {
		if err := u.Reviews.Create(ctx, review); err != nil {
			return err
		}
		if err := u.Products.RefreshRating(ctx, product.ID); err != nil {
			return err
		}
		return u.Suppliers.RefreshRating(ctx, product.SupplierID)
	})
	if err != nil {
		return nil, err
	}

	// 通知供应商收到新评价
	supplier, err := s.supplierRepo.GetByID(ctx, product.SupplierID)
	if err == nil && supplier != nil {
		_ = pushNotification(ctx, s.notifRepo, s.events, supplier.UserID,
			model.NotifyNewReview,
			"New review received",
			product.Name+" received a "+ratingLabel(req.Rating)+" review",
			datatypes.JSONMap{"review_id": review.ID, "product_id": product.ID})
	}

	return toReviewInfo(review), nil
}

func ratingLabel(rating int) string {
	labels := map[int]string{1: "1-star", 2: "2-star", 3: "3-star", 4: "4-star", 5: "5-star"}
	return labels[rating]
}

// ==================== 查询 ====================

// ListProductReviews 商品评价列表与评分汇总
func (s *ReviewService) ListProductReviews(ctx context.Context, productID int64, req *dto.ReviewListRequest) (*dto.ProductReviewsResponse, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	reviews, total, err := s.reviewRepo.ListByProduct(ctx, productID, repository.ReviewFilter{
		Rating:   req.Rating,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	histogram, err := s.reviewRepo.Histogram(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductReviewsResponse{
		Summary: dto.RatingSummary{
			Average:   product.RatingAvg,
			Count:     product.RatingCount,
			Histogram: histogram,
		},
		Total: total,
		List:  make([]*dto.ReviewInfo, 0, len(reviews)),
	}
	for i := range reviews {
		resp.List = append(resp.List, toReviewInfo(&reviews[i]))
	}
	return resp, nil
}

// ListSupplierReviews 供应商查看名下商品的评价
func (s *ReviewService) ListSupplierReviews(ctx context.Context, userID int64, req *dto.ReviewListRequest) ([]*dto.ReviewInfo, int64, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if supplier == nil {
		return nil, 0, ErrSupplierNotFound
	}

	reviews, total, err := s.reviewRepo.ListBySupplier(ctx, supplier.ID, repository.ReviewFilter{
		Rating:   req.Rating,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	infos := make([]*dto.ReviewInfo, 0, len(reviews))
	for i := range reviews {
		infos = append(infos, toReviewInfo(&reviews[i]))
	}
	return infos, total, nil
}

// ==================== 供应商回复 ====================

// ReplyReview 供应商回复自家商品的评价，一条评价只回一次
func (s *ReviewService) ReplyReview(ctx context.Context, userID int64, reviewID int64, req *dto.ReplyReviewRequest) (*dto.ReviewInfo, error) {
	supplier, err := s.supplierRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}

	product, err := s.productRepo.GetByID(ctx, review.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.SupplierID != supplier.ID {
		return nil, ErrNotReviewRecipient
	}
	if review.HasReply() {
		return nil, ErrAlreadyReplied
	}

	now := time.Now()
	review.SupplierReply = req.Reply
	review.RepliedAt = &now
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	return toReviewInfo(review), nil
}

// ==================== 错误定义 ====================

var (
	ErrReviewNotFound     = apperr.NotFound("review not found")
	ErrReviewNotEligible  = apperr.Forbidden("reviews require a delivered order containing this product")
	ErrAlreadyReviewed    = apperr.Conflict("product already reviewed for this order")
	ErrNotReviewRecipient = apperr.Forbidden("review belongs to another supplier's product")
	ErrAlreadyReplied     = apperr.Conflict("review already has a reply")
)
