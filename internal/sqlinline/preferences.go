package sqlinline

const QGetPreferences = `--sql e1a115e0-fd36-43c2-9a2d-b1b9475abd7a
select default_style, default_aspect_ratio, theme, auto_save
from user_preferences
where user_id = $1::text`

const QUpsertPreferences = `--sql 13147fb8-1b37-49f6-9435-00308d3121b7
insert into user_preferences (user_id, default_style, default_aspect_ratio, theme, auto_save, updated_at)
values ($1::text, $2::text, $3::text, $4::text, $5::boolean, now())
on conflict (user_id) do update
set default_style        = excluded.default_style,
    default_aspect_ratio = excluded.default_aspect_ratio,
    theme                = excluded.theme,
    auto_save            = excluded.auto_save,
    updated_at           = now()`
