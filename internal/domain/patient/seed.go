package patient

import "time"

func ptr[T any](v T) *T { return &v }

// Seed returns the sample patients shown before real data exists.
func Seed(now time.Time) []*Patient {
	daysAgo := func(n int) time.Time { return now.UTC().AddDate(0, 0, -n) }
	return []*Patient{
		{
			ID: "1", Name: "Nguyễn Văn A", Phone: "0901234567",
			Email:       ptr("nguyenvana@example.com"),
			Address:     ptr("123 Đường ABC, Quận 1, TP.HCM"),
			DateOfBirth: ptr("1990-01-15"),
			Gender:      ptr(GenderMale),
			Notes:       ptr("Bệnh nhân có tiền sử dị ứng thuốc"),
			CreatedAt:   daysAgo(365),
		},
		{
			ID: "2", Name: "Trần Thị B", Phone: "0907654321",
			Email:       ptr("tranthib@example.com"),
			Address:     ptr("456 Đường XYZ, Quận 2, TP.HCM"),
			DateOfBirth: ptr("1985-05-20"),
			Gender:      ptr(GenderFemale),
			Notes:       ptr("Bệnh nhân cần theo dõi định kỳ"),
			CreatedAt:   daysAgo(200),
		},
		{
			ID: "3", Name: "Lê Văn C", Phone: "0912345678",
			Email:       ptr("levanc@example.com"),
			Address:     ptr("789 Đường DEF, Quận 3, TP.HCM"),
			DateOfBirth: ptr("1992-08-10"),
			Gender:      ptr(GenderMale),
			Notes:       ptr("Bệnh nhân mới, chưa có tiền sử"),
			CreatedAt:   daysAgo(30),
		},
	}
}
